// Package pictochat implements the demo application on top of the DS
// link: the chatroom beacon payload, the user table, and the observed
// (partially understood) console-ident wire formats.
package pictochat

import "github.com/mjwells2002/foa-dswifi/internal/adapters/frame"

// Chatroom selects one of the four PictoChat rooms.
type Chatroom uint8

const (
	RoomA Chatroom = 0x00
	RoomB Chatroom = 0x01
	RoomC Chatroom = 0x02
	RoomD Chatroom = 0x03
)

// beaconHeader and beaconFooter bracket the chatroom payload inside the
// vendor tag. Observed constants.
var (
	beaconHeader = [4]byte{0x48, 0x23, 0x11, 0x0A}
	beaconFooter = [2]byte{0x04, 0x00}
)

// Tag-level constants captured from a working host.
const (
	streamCode    = 7
	cmdDataSize   = 0x00C0
	replyDataSize = 0x00C0
)

// BeaconPayload encodes the inner PictoChat beacon body. The client
// count on the air includes the host itself.
func BeaconPayload(room Chatroom, numClients int) []byte {
	p := make([]byte, 0, 8)
	p = append(p, beaconHeader[:]...)
	p = append(p, byte(room))
	p = append(p, byte(numClients+1))
	return append(p, beaconFooter[:]...)
}

// BeaconTag builds the full vendor tag for the given room, suitable for
// the MAC runner's beacon tick.
func BeaconTag(room Chatroom) func(numClients int) frame.DSBeaconTag {
	return func(numClients int) frame.DSBeaconTag {
		t := frame.DefaultDSBeaconTag()
		t.BeaconType = frame.BeaconMulticart
		t.StreamCode = streamCode
		t.CmdDataSize = cmdDataSize
		t.ReplyDataSize = replyDataSize
		t.Payload = BeaconPayload(room, numClients)
		return t
	}
}

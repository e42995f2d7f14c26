package storage

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteAdapter {
	t.Helper()
	s, err := NewSQLiteAdapter(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogAndReadMessages(t *testing.T) {
	s := openTestStore(t)
	mac := net.HardwareAddr{0xAA, 0xAA, 0xAA, 0x00, 0x00, 0x01}

	require.NoError(t, s.LogMessage(mac, 1, []byte("hello"), time.Now()))
	require.NoError(t, s.LogMessage(mac, 1, []byte("world"), time.Now().Add(time.Second)))

	msgs, err := s.RecentMessages(10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Newest first.
	assert.Equal(t, []byte("world"), msgs[0].Body)
	assert.Equal(t, mac.String(), msgs[0].FromMAC)
	assert.Equal(t, uint16(1), msgs[0].FromAID)
	assert.NotEmpty(t, msgs[0].ID)
}

func TestRecentMessagesLimit(t *testing.T) {
	s := openTestStore(t)
	mac := net.HardwareAddr{0xAA, 0xAA, 0xAA, 0x00, 0x00, 0x01}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.LogMessage(mac, 1, []byte{byte(i)}, time.Now().Add(time.Duration(i)*time.Second)))
	}
	msgs, err := s.RecentMessages(3)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestLogEvent(t *testing.T) {
	s := openTestStore(t)
	mac := net.HardwareAddr{0xAA, 0xAA, 0xAA, 0x00, 0x00, 0x01}
	require.NoError(t, s.LogEvent("connected", mac, time.Now()))
	require.NoError(t, s.LogEvent("disconnected", mac, time.Now()))

	var count int64
	require.NoError(t, s.db.Model(&SessionEventModel{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

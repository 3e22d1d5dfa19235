package service

import "strings"

// StaticRooms resolves default rooms from a fixed event-type→room
// table loaded at startup.
type StaticRooms struct {
	Rooms    map[string]string
	Fallback string
}

// DefaultRoomFor implements RoomDefaults.
func (r *StaticRooms) DefaultRoomFor(eventType string) string {
	if room, ok := r.Rooms[eventType]; ok {
		return room
	}
	return r.Fallback
}

// ParsePairs reads a "type=Room,type=Room" setting into a room
// table. Malformed entries are skipped.
func ParsePairs(setting string) map[string]string {
	rooms := make(map[string]string)
	for _, pair := range strings.Split(setting, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			continue
		}
		rooms[key] = value
	}
	return rooms
}

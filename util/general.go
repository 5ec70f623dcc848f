package util

import "fmt"

// GroupKey is the broadcast group used for the members of a room.
func GroupKey(room string) string {
	return fmt.Sprintf("room:%v", room)
}

package chat

import "fmt"

// RoomKey maps the unordered pair {a, b} to one canonical room identifier:
// RoomKey(a, b) == RoomKey(b, a) for all identities. The sorted identities
// are length-prefixed so that no choice of usernames can make two different
// pairs collide ("ab"+"c" vs "a"+"bc").
func RoomKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%s_%d:%s", len(a), a, len(b), b)
}

// OwnRoomKey is the singleton room for one user, used for direct
// notifications such as friend requests. The single length prefix keeps it
// disjoint from every pairwise key.
func OwnRoomKey(identity string) string {
	return fmt.Sprintf("%d:%s", len(identity), identity)
}

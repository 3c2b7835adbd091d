package redisrepo

import "fmt"

const ns = "cineseat:v1"

// KeyCinemaAvailability names the counts cached for one availability
// version of a cinema.
func KeyCinemaAvailability(externalID string, version int64) string {
	return fmt.Sprintf("%s:cinema:%s:availability:%d", ns, externalID, version)
}

func KeyCinemaAvailabilityVersion(externalID string) string {
	return fmt.Sprintf("%s:cinema:%s:availability:ver", ns, externalID)
}

func KeyCinema(externalID string) string {
	return fmt.Sprintf("%s:cinema:%s:summary", ns, externalID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemPurchase(externalID, scope, idemKey string) string {
	return fmt.Sprintf("%s:idem:purchase:%s:%s:%s", ns, externalID, scope, idemKey)
}

func ChannelSeatsSold() string {
	return ns + ":seats:sold"
}

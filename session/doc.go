// Package session tracks the game each player is currently playing.
//
// A Tracker keeps recently used GameState values in an expiring container so
// idle players are forgotten after the configured TTL, while the backing store
// (a types.Loader) remains the durable copy. Reads are read-through: a miss is
// loaded from the store once, even when many goroutines ask for the same player
// at the same moment. Writes go through a writepolicy.WritePolicy.
package session

package api

/*
Map defines the PUBLIC API of an expiring container.
This is a contract that guarantees certain behaviors, without exposing internals.
The freshness index, the entry table and the cleanup pass are all hidden behind it.

No method returns an error. A missing key is reported through the boolean result.
*/
type Map[K comparable, V any] interface {

	/*
		Insert stores value under key.

		BEHAVIOR:
		---------
		1. Runs a cleanup pass, evicting entries whose last access is older than the TTL
		2. Stores the value and stamps the key with the current time
		3. Returns the value previously stored under key and true, or the zero value and false
	*/
	Insert(key K, value V) (V, bool)

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		-------------------
		1. Runs a cleanup pass first
		2. If the key is live:
		   - Refreshes its last access time to now
		   - Returns the value and true
		3. If the key is absent or has expired:
		   - Returns the zero value and false
		   - Does NOT insert anything
	*/
	Get(key K) (V, bool)

	/*
		Remove deletes a key immediately and returns its value.

		- Does NOT run a cleanup pass
		- Leaves the key's pending access record behind; cleanup drops it later

		This operation is idempotent:
		- Removing a non-existing key is safe and returns false
	*/
	Remove(key K) (V, bool)

	/*
		Len returns how many entries are held right now.
		Entries that have expired but were not yet reached by a cleanup pass are counted.
	*/
	Len() int
}

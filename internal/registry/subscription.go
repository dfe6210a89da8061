package registry

import (
	"sync"

	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

// subscriptionKey identifies one (group name, service name) pair.
type subscriptionKey struct {
	group   string
	service string
}

// interest is one (workerId, callbackFitableId) pair registered against a
// subscription.
type interest struct {
	workerID          string
	callbackFitableID string
}

// subscriptionEntry is one live subscription: the backend listener handle
// (needed to tear down with the exact same object) and the set of parties
// still interested in it.
type subscriptionEntry struct {
	param     *vo.SubscribeParam
	interests map[interest]struct{}
}

// subscriptionTable is the Registry Client's per-(group,service) table,
// the same shape as websocket.Hub.topics: one map, one mutex, updates
// strictly serialized.
//
// absent --subscribe(first)--> live --subscribe(again)--> live (grows)
//
//	unsubscribe(last) tears the entry (and backend listener) down;
//	unsubscribe(not last) only shrinks the interest set.
type subscriptionTable struct {
	mu      sync.Mutex
	entries map[subscriptionKey]*subscriptionEntry
}

func newSubscriptionTable() *subscriptionTable {
	return &subscriptionTable{entries: make(map[subscriptionKey]*subscriptionEntry)}
}

// addInterest records that (workerID, callbackFitableID) wants updates for
// key. It reports whether this is the first interest for key; the caller
// must then install a backend listener and store it via setParam.
func (t *subscriptionTable) addInterest(key subscriptionKey, in interest) (isNew bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = &subscriptionEntry{interests: make(map[interest]struct{})}
		t.entries[key] = e
		isNew = true
	}
	e.interests[in] = struct{}{}
	return isNew
}

// setParam stores the backend listener handle for key. Called once, right
// after addInterest reported isNew == true and the backend Subscribe call
// succeeded.
func (t *subscriptionTable) setParam(key subscriptionKey, param *vo.SubscribeParam) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.param = param
	}
}

// rollback removes key entirely. Called when installing the backend
// listener for a brand-new subscription fails, so a half-created entry
// never lingers.
func (t *subscriptionTable) rollback(key subscriptionKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// removeInterest drops (workerID, callbackFitableID) from key's interest
// set. It reports whether the set became empty (the caller must then tear
// down the backend listener using the returned param and delete the
// entry via remove) and the param to tear down with.
func (t *subscriptionTable) removeInterest(key subscriptionKey, in interest) (param *vo.SubscribeParam, shouldTeardown bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	delete(e.interests, in)
	if len(e.interests) == 0 {
		return e.param, true
	}
	return nil, false
}

// remove deletes key's entry outright. Called after the backend listener
// for an empty entry has been torn down.
func (t *subscriptionTable) remove(key subscriptionKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// exists reports whether key currently has a live entry.
func (t *subscriptionTable) exists(key subscriptionKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[key]
	return ok
}

// count reports the number of distinct (group, service) keys currently
// subscribed, for internal/metrics' RegistrySubscriptions gauge.
func (t *subscriptionTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

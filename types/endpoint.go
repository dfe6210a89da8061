package types

// Protocol is the small integer tag identifying an Endpoint's transport.
type Protocol int

// The fixed set of protocol tags recognized by the encoder. Any other
// value is rejected at encode time with a CodecError.
const (
	ProtocolRSocket     Protocol = 0
	ProtocolSocket      Protocol = 1
	ProtocolHTTP        Protocol = 2
	ProtocolGRPC        Protocol = 3
	ProtocolUC          Protocol = 10
	ProtocolShareMemory Protocol = 11
)

// ValidProtocol reports whether p is one of the fixed recognized tags.
func ValidProtocol(p Protocol) bool {
	switch p {
	case ProtocolRSocket, ProtocolSocket, ProtocolHTTP, ProtocolGRPC, ProtocolUC, ProtocolShareMemory:
		return true
	default:
		return false
	}
}

// Endpoint is a (port, protocol) pair reachable on an Address's host.
type Endpoint struct {
	Port     int      `json:"port"`
	Protocol Protocol `json:"protocol"`
}

// Address is a host plus the ordered sequence of endpoints reachable on it.
type Address struct {
	Host      string     `json:"host"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Worker identifies one Runtime process: its reachable addresses, its
// cluster-unique id, its environment, and a free-form extension map.
//
// Id is the sole key by which a Worker is matched when unregistering or
// diffing — two Workers are "the same" for those purposes iff their Id
// fields are equal, even though Equal below compares every field for the
// full structural-equality invariant used when deduplicating query results.
type Worker struct {
	Addresses   []Address         `json:"addresses"`
	ID          string            `json:"id"`
	Environment string            `json:"environment"`
	Extension   map[string]string `json:"extension"`
}

// UnknownWorker is the documented decode default for a Worker.
func UnknownWorker() Worker {
	return Worker{ID: "unknown"}
}

// Equal reports full structural equality between two Workers, used to
// deduplicate the worker set within a query result's ApplicationInstance.
func (w Worker) Equal(o Worker) bool {
	if w.ID != o.ID || w.Environment != o.Environment {
		return false
	}
	if len(w.Addresses) != len(o.Addresses) {
		return false
	}
	for i := range w.Addresses {
		if !w.Addresses[i].equal(o.Addresses[i]) {
			return false
		}
	}
	if len(w.Extension) != len(o.Extension) {
		return false
	}
	for k, v := range w.Extension {
		if ov, ok := o.Extension[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (a Address) equal(o Address) bool {
	if a.Host != o.Host || len(a.Endpoints) != len(o.Endpoints) {
		return false
	}
	for i := range a.Endpoints {
		if a.Endpoints[i] != o.Endpoints[i] {
			return false
		}
	}
	return true
}

// Application is a named deployment unit. A Worker belongs to exactly one.
type Application struct {
	Name        string `json:"name"`
	NameVersion string `json:"name_version"`
}

// UnknownApplication is the documented decode default for an Application.
var UnknownApplication = Application{Name: "unknown", NameVersion: "unknown"}

// Equal reports structural equality between two Applications.
func (a Application) Equal(o Application) bool {
	return a.Name == o.Name && a.NameVersion == o.NameVersion
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupNameAndServiceName(t *testing.T) {
	f := Fitable{
		GenericableID:      "g",
		GenericableVersion: "1",
		FitableID:          "f",
		FitableVersion:     "1",
	}

	assert.Equal(t, "g::1", GroupName(f))
	assert.Equal(t, "f::1", ServiceName(f))
	assert.Equal(t, "g::1", GenericableGroupName(f.Genericable()))
}

func TestGroupNamePureFunction(t *testing.T) {
	f1 := Fitable{GenericableID: "g", GenericableVersion: "1", FitableID: "f", FitableVersion: "1"}
	f2 := f1
	assert.Equal(t, GroupName(f1), GroupName(f2))
	assert.Equal(t, ServiceName(f1), ServiceName(f2))
}

func TestFitableValid(t *testing.T) {
	assert.True(t, Fitable{"g", "1", "f", "1"}.Valid())
	assert.False(t, Fitable{"", "1", "f", "1"}.Valid())
	assert.False(t, Fitable{"g", "", "f", "1"}.Valid())
}

func TestValidProtocol(t *testing.T) {
	for _, p := range []Protocol{ProtocolRSocket, ProtocolSocket, ProtocolHTTP, ProtocolGRPC, ProtocolUC, ProtocolShareMemory} {
		assert.True(t, ValidProtocol(p))
	}
	assert.False(t, ValidProtocol(Protocol(99)))
}

func TestWorkerEqual(t *testing.T) {
	w1 := Worker{
		ID:          "w1",
		Environment: "dev",
		Addresses:   []Address{{Host: "10.0.0.5", Endpoints: []Endpoint{{Port: 8080, Protocol: ProtocolHTTP}}}},
		Extension:   map[string]string{"a": "1"},
	}
	w2 := w1
	w2.Addresses = []Address{{Host: "10.0.0.5", Endpoints: []Endpoint{{Port: 8080, Protocol: ProtocolHTTP}}}}
	w2.Extension = map[string]string{"a": "1"}
	assert.True(t, w1.Equal(w2))

	w3 := w1
	w3.ID = "w2"
	assert.False(t, w1.Equal(w3))
}

// Package codec translates native Worker/Application/FitableMeta values to
// and from the opaque string-keyed metadata map carried on each backend
// instance.
//
// Decoding is lenient by design: a missing or malformed value never fails
// a query for every peer because one of them registered malformed
// metadata. It substitutes the documented default and logs a warning
// instead.
package codec

import (
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/fitframework/fit-registry-go/types"
)

// Metadata keys reserved by this subsystem and the backend.
const (
	KeyWorker      = "worker"
	KeyApplication = "application"
	KeyFitableMeta = "fitable-meta"

	KeyHeartBeatInterval = "preserved.heart.beat.interval"
	KeyHeartBeatTimeout  = "preserved.heart.beat.timeout"
)

// EncodeWorker JSON-encodes a Worker into the metadata map under KeyWorker.
// It rejects any Endpoint carrying a protocol tag outside the fixed set
// with a CodecError.
func EncodeWorker(w types.Worker) (string, error) {
	for _, addr := range w.Addresses {
		for _, ep := range addr.Endpoints {
			if !types.ValidProtocol(ep.Protocol) {
				return "", newCodecError("unknown endpoint protocol tag %d on host %q", ep.Protocol, addr.Host)
			}
		}
	}

	b, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeApplication JSON-encodes an Application under KeyApplication.
func EncodeApplication(a types.Application) (string, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeFitableMeta JSON-encodes a FitableMeta under KeyFitableMeta.
func EncodeFitableMeta(m types.FitableMeta) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeHeartBeat renders the two preserved heart-beat keys as decimal
// integer millisecond strings.
func EncodeHeartBeat(intervalMS, timeoutMS int64) (interval string, timeout string) {
	return strconv.FormatInt(intervalMS, 10), strconv.FormatInt(timeoutMS, 10)
}

// BuildMetadata assembles the full metadata map for one backend instance.
func BuildMetadata(w types.Worker, a types.Application, m types.FitableMeta, heartBeatIntervalMS, heartBeatTimeoutMS int64) (map[string]string, error) {
	workerJSON, err := EncodeWorker(w)
	if err != nil {
		return nil, err
	}
	appJSON, err := EncodeApplication(a)
	if err != nil {
		return nil, err
	}
	metaJSON, err := EncodeFitableMeta(m)
	if err != nil {
		return nil, err
	}
	interval, timeout := EncodeHeartBeat(heartBeatIntervalMS, heartBeatTimeoutMS)

	return map[string]string{
		KeyWorker:            workerJSON,
		KeyApplication:       appJSON,
		KeyFitableMeta:       metaJSON,
		KeyHeartBeatInterval: interval,
		KeyHeartBeatTimeout:  timeout,
	}, nil
}

// DecodeWorker decodes the KeyWorker entry of md, falling back to the
// documented default and logging a warning on any missing or malformed
// value. It never returns an error — decoding degrades instead of failing.
//
// ip/port come from the backend instance envelope itself (not the
// metadata blob) and are used for the Address fallback rule: if decoding
// produced the unknown-worker default but ip/port are usable, a single
// synthetic Address is attached so the instance remains reachable.
func DecodeWorker(md map[string]string, ip string, port int, logger *zap.Logger) types.Worker {
	raw, ok := md[KeyWorker]
	if !ok || raw == "" {
		logger.Warn("codec: missing worker metadata, using default", zap.String("key", KeyWorker))
		return fallbackWorker(ip, port)
	}

	var w types.Worker
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		logger.Warn("codec: malformed worker metadata, using default",
			zap.String("key", KeyWorker), zap.Error(err))
		return fallbackWorker(ip, port)
	}
	if w.ID == "" {
		logger.Warn("codec: worker metadata missing id, using default", zap.String("key", KeyWorker))
		return fallbackWorker(ip, port)
	}
	return w
}

func fallbackWorker(ip string, port int) types.Worker {
	w := types.UnknownWorker()
	if ip != "" && port > 0 {
		w.Addresses = []types.Address{
			{Host: ip, Endpoints: []types.Endpoint{{Port: port, Protocol: types.ProtocolSocket}}},
		}
	}
	return w
}

// DecodeApplication decodes the KeyApplication entry of md, falling back
// to UnknownApplication and logging a warning on any missing or malformed
// value.
func DecodeApplication(md map[string]string, logger *zap.Logger) types.Application {
	raw, ok := md[KeyApplication]
	if !ok || raw == "" {
		logger.Warn("codec: missing application metadata, using default", zap.String("key", KeyApplication))
		return types.UnknownApplication
	}

	var a types.Application
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		logger.Warn("codec: malformed application metadata, using default",
			zap.String("key", KeyApplication), zap.Error(err))
		return types.UnknownApplication
	}
	if a.Name == "" {
		logger.Warn("codec: application metadata missing name, using default", zap.String("key", KeyApplication))
		return types.UnknownApplication
	}
	return a
}

// DecodeFitableMeta decodes the KeyFitableMeta entry of md, falling back
// to DefaultFitableMeta and logging a warning on any missing or malformed
// value.
func DecodeFitableMeta(md map[string]string, logger *zap.Logger) types.FitableMeta {
	raw, ok := md[KeyFitableMeta]
	if !ok || raw == "" {
		logger.Warn("codec: missing fitable-meta metadata, using default", zap.String("key", KeyFitableMeta))
		return types.DefaultFitableMeta()
	}

	var m types.FitableMeta
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		logger.Warn("codec: malformed fitable-meta metadata, using default",
			zap.String("key", KeyFitableMeta), zap.Error(err))
		return types.DefaultFitableMeta()
	}
	if !m.Fitable.Valid() {
		logger.Warn("codec: fitable-meta metadata has incomplete fitable, using default", zap.String("key", KeyFitableMeta))
		return types.DefaultFitableMeta()
	}
	return m
}

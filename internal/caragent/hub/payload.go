package hub

import (
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"cloupeer.io/bcicar/internal/caragent/drive"
)

// OnlinePayload encodes an online/offline status. It carries no timestamp so
// the broker-held will never goes stale.
func OnlinePayload(deviceID string, online bool, reason string) ([]byte, error) {
	return marshal(map[string]any{
		"device": deviceID,
		"online": online,
		"reason": reason,
	})
}

func registerMessage(deviceID, ip string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"status":    "ready",
		"device":    deviceID,
		"ip":        ip,
		"timestamp": time.Now().Unix(),
	})
}

func stateMessage(deviceID string, st drive.ExecutionState) (*structpb.Struct, error) {
	var action any
	if st.Action != "" {
		action = string(st.Action)
	}
	return structpb.NewStruct(map[string]any{
		"device":         deviceID,
		"current_action": action,
		"phase":          string(st.Phase),
	})
}

func marshal(m map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

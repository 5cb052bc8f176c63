package checkpoint

import (
	"encoding/json"
	"fmt"

	"github.com/kalambet/reqmine/internal/mining"
)

func encodeState(state *mining.MiningState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encoding checkpoint: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*mining.MiningState, error) {
	var state mining.MiningState
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt snapshot is indistinguishable from a lost session
		// for the caller: both mean the session cannot be resumed.
		return nil, fmt.Errorf("decoding checkpoint: %w: %w", ErrNotFound, err)
	}
	return &state, nil
}

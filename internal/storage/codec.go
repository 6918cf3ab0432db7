package storage

import (
	"encoding/json"
	"errors"

	"sensorsim/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is the version stamp written on new records.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeAgentSnapshots(agents []model.AgentSnapshot) ([]byte, error) {
	return json.Marshal(agents)
}

func DecodeAgentSnapshots(data []byte) ([]model.AgentSnapshot, error) {
	var agents []model.AgentSnapshot
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, err
	}
	for _, a := range agents {
		if err := checkVersion(a.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return agents, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

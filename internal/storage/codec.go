package storage

import (
	"encoding/json"
	"errors"
	"sort"

	"adhocnet/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned stamps a record with the current schema and codec versions.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
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

func EncodeNetwork(s model.NetworkSnapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeNetwork(data []byte) (model.NetworkSnapshot, error) {
	var snapshot model.NetworkSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.NetworkSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.NetworkSnapshot{}, err
	}
	return snapshot, nil
}

func EncodeGenerationStats(stats []model.GenerationStats) ([]byte, error) {
	return json.Marshal(stats)
}

func DecodeGenerationStats(data []byte) ([]model.GenerationStats, error) {
	var stats []model.GenerationStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// sortRuns orders runs oldest first.
func sortRuns(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

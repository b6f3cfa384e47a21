package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const ManifestName = "manifest.json"

var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Bharadwaj204/Ecom-synthetic-data-platform/snapshot"))

// Manifest describes one generated snapshot. It carries everything the
// auditor needs to check a store without re-running generation.
type Manifest struct {
	SnapshotID    string         `json:"snapshot_id"`
	Seed          int64          `json:"seed"`
	ReferenceDate string         `json:"reference_date"`
	HistoryDays   int            `json:"history_days"`
	Counts        map[string]int `json:"counts"`
	Anomaly       AnomalyInfo    `json:"anomaly"`
	Tolerance     ToleranceInfo  `json:"tolerance"`
	Files         []FileInfo     `json:"files"`
}

type AnomalyInfo struct {
	Rate         float64 `json:"rate"`
	MinMagnitude float64 `json:"min_magnitude"`
	MaxMagnitude float64 `json:"max_magnitude"`
	Injected     int     `json:"injected"`
	PaymentIDs   []int64 `json:"payment_ids"`
}

type ToleranceInfo struct {
	Abs float64 `json:"abs"`
	Rel float64 `json:"rel"`
}

type FileInfo struct {
	Table  string `json:"table"`
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	SHA256 string `json:"sha256"`
}

func FileName(table string) string { return table + ".csv" }

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Seal fills in SnapshotID from the manifest content. The id is a name-based
// UUID, so identical runs get identical ids.
func (m *Manifest) Seal() error {
	m.SnapshotID = ""
	if m.Anomaly.PaymentIDs == nil {
		m.Anomaly.PaymentIDs = []int64{}
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	m.SnapshotID = uuid.NewSHA1(snapshotNamespace, body).String()
	return nil
}

func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.SnapshotID == "" {
		return nil, fmt.Errorf("manifest has no snapshot_id")
	}
	return &m, nil
}

func (m *Manifest) File(table string) (FileInfo, bool) {
	for _, f := range m.Files {
		if f.Table == table {
			return f, true
		}
	}
	return FileInfo{}, false
}

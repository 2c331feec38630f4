package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile and returns it with the raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	p, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return p, data, nil
}

// Parse decodes and validates a YAML profile. Missing fields keep their defaults.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Hash generates SHA256 hash from the profile (canonical JSON)
// 주의: map 필드는 encoding/json이 키 정렬하므로 재현성 보장
func Hash(p *Profile) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Snapshot ties a dataset build to the exact profile that produced it
type Snapshot struct {
	ProfileHash string    `json:"profile_hash"`
	ProfileYAML string    `json:"profile_yaml,omitempty"`
	ProfileID   string    `json:"profile_id"`
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSnapshot creates a snapshot for a build run
func NewSnapshot(p *Profile, yamlData []byte, runID string) (*Snapshot, error) {
	hash, err := Hash(p)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ProfileHash: hash,
		ProfileYAML: string(yamlData),
		ProfileID:   p.Meta.ProfileID,
		RunID:       runID,
		CreatedAt:   time.Now(),
	}, nil
}

// Package backup serializes the full ledger state to a YAML snapshot
// and restores it through the bulk upsert paths.
package backup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// SchemaVersion identifies the snapshot layout. Bump on any breaking
// change to Snapshot.
const SchemaVersion = 1

// Manifest identifies a snapshot.
type Manifest struct {
	ID            string `yaml:"id"`
	CreatedAt     uint64 `yaml:"created_at"`
	SchemaVersion int    `yaml:"schema_version"`
}

// Snapshot is the complete exportable ledger state.
type Snapshot struct {
	Manifest       Manifest                        `yaml:"manifest"`
	Onchain        []activity.OnchainActivity      `yaml:"onchain_activities"`
	Lightning      []activity.LightningActivity    `yaml:"lightning_activities"`
	Tags           []activity.ActivityTags         `yaml:"tags"`
	Metadata       []activity.PreActivityMetadata  `yaml:"pre_activity_metadata"`
	ClosedChannels []activity.ClosedChannelDetails `yaml:"closed_channels"`
}

// Export reads the full ledger into a snapshot. Activities are exported
// oldest first so a restore replays them in original order.
func Export(ctx context.Context, s *store.Store) (*Snapshot, error) {
	snap := &Snapshot{
		Manifest: Manifest{
			ID:            uuid.NewString(),
			CreatedAt:     uint64(time.Now().Unix()),
			SchemaVersion: SchemaVersion,
		},
	}

	all, err := s.Activities(ctx, store.Query{Sort: activity.SortAscending})
	if err != nil {
		return nil, fmt.Errorf("export activities: %w", err)
	}
	for _, a := range all {
		switch {
		case a.Onchain != nil:
			snap.Onchain = append(snap.Onchain, *a.Onchain)
		case a.Lightning != nil:
			snap.Lightning = append(snap.Lightning, *a.Lightning)
		}
	}

	if snap.Tags, err = s.AllActivityTags(ctx); err != nil {
		return nil, fmt.Errorf("export tags: %w", err)
	}
	if snap.Metadata, err = s.AllMetadata(ctx); err != nil {
		return nil, fmt.Errorf("export metadata: %w", err)
	}
	if snap.ClosedChannels, err = s.AllClosedChannels(ctx, activity.SortAscending); err != nil {
		return nil, fmt.Errorf("export closed channels: %w", err)
	}

	return snap, nil
}

// Import restores a snapshot through the bulk upsert paths. Existing
// rows with matching ids are updated in place; restore is idempotent.
// Activities land before tags and metadata so the tag foreign keys
// resolve.
func Import(ctx context.Context, s *store.Store, snap *Snapshot) error {
	if snap.Manifest.SchemaVersion > SchemaVersion {
		return fmt.Errorf("snapshot schema version %d is newer than supported %d",
			snap.Manifest.SchemaVersion, SchemaVersion)
	}

	if err := s.UpsertOnchainActivities(ctx, snap.Onchain); err != nil {
		return fmt.Errorf("restore onchain activities: %w", err)
	}
	if err := s.UpsertLightningActivities(ctx, snap.Lightning); err != nil {
		return fmt.Errorf("restore lightning activities: %w", err)
	}
	if err := s.UpsertTags(ctx, snap.Tags); err != nil {
		return fmt.Errorf("restore tags: %w", err)
	}
	if err := s.UpsertMetadata(ctx, snap.Metadata); err != nil {
		return fmt.Errorf("restore metadata: %w", err)
	}
	if err := s.UpsertClosedChannels(ctx, snap.ClosedChannels); err != nil {
		return fmt.Errorf("restore closed channels: %w", err)
	}
	return nil
}

// Encode renders the snapshot as YAML.
func (s *Snapshot) Encode() ([]byte, error) {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

// Decode parses a YAML snapshot.
func Decode(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// WriteFile exports the ledger to a YAML file.
func WriteFile(ctx context.Context, s *store.Store, path string) error {
	snap, err := Export(ctx, s)
	if err != nil {
		return err
	}
	raw, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadFile restores the ledger from a YAML file.
func ReadFile(ctx context.Context, s *store.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := Decode(raw)
	if err != nil {
		return err
	}
	return Import(ctx, s, snap)
}

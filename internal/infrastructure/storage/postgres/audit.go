package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
)

// CompressionAlgo specifies how an audit payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// Sale edits snapshot every line twice, so large documents cross this quickly.
const defaultCompressThreshold = 8 * 1024

// auditCodec compresses large before/after snapshots with zstd.
type auditCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

func newAuditCodec(threshold int) (*auditCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &auditCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// encode returns the plain and compressed columns; exactly one is set.
func (c *auditCodec) encode(changes json.RawMessage) (json.RawMessage, []byte, CompressionAlgo) {
	if len(changes) <= c.threshold {
		return changes, nil, CompressionNone
	}
	return nil, c.encoder.EncodeAll(changes, nil), CompressionZstd
}

func (c *auditCodec) decode(row auditRow) (json.RawMessage, error) {
	if row.CompressionAlgo != CompressionZstd {
		return row.Changes, nil
	}
	out, err := c.decoder.DecodeAll(row.ChangesCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress audit %s: %w", row.ID, err)
	}
	return out, nil
}

type auditRow struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            string          `db:"action"`
	UserID            string          `db:"user_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

var auditCols = ExtractDBColumns[auditRow]()

type auditRepo struct{ repo }

func (r auditRepo) Record(ctx context.Context, e audit.Entry) error {
	row := auditRow{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     string(e.Action),
		UserID:     e.UserID,
		CreatedAt:  e.CreatedAt,
	}
	if id.IsNil(row.ID) {
		row.ID = id.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.Changes, row.ChangesCompressed, row.CompressionAlgo = r.store.codec.encode(e.Changes)
	return r.insert(ctx, "audit_log", "audit entry", row)
}

func (r auditRepo) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	b := r.from("audit_log", auditCols...).
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	rows, err := selectAll[auditRow](ctx, r.q(ctx), b)
	if err != nil {
		return nil, err
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		changes, err := r.store.codec.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, audit.Entry{
			ID:         row.ID,
			TenantID:   r.tenantID,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Action:     audit.Action(row.Action),
			UserID:     row.UserID,
			Changes:    changes,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}

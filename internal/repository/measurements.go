package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"g2-mqtt/g2"
	"g2-mqtt/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const insertMeasurementSQL = `
	INSERT INTO g2_measurements (
		packet_id,
		network,
		node,
		datatype,
		unit,
		value,
		measured_at,
		received_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
`

// MeasurementRepository 测量值仓库
type MeasurementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMeasurementRepository 创建测量值仓库
func NewMeasurementRepository(db *sql.DB, logger *zap.Logger) *MeasurementRepository {
	return &MeasurementRepository{
		db:     db,
		logger: logger,
	}
}

// Insert 插入单个测量值，返回记录 id
func (r *MeasurementRepository) Insert(ctx context.Context, network, node string, m g2.Measurement) (int64, error) {
	row := models.NewDecodedMeasurement(uuid.NewString(), network, node, m, time.Now())

	var id int64
	err := r.db.QueryRowContext(ctx, insertMeasurementSQL,
		row.PacketID,
		row.Network,
		row.Node,
		row.Datatype,
		row.Unit,
		row.Value,
		row.MeasuredAt,
		row.ReceivedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert measurement %s: %w", m.Datatype, err)
	}

	return id, nil
}

// InsertBatch 在一个事务中插入同一报文的全部测量值
func (r *MeasurementRepository) InsertBatch(ctx context.Context, measurements []models.DecodedMeasurement) error {
	if len(measurements) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertMeasurementSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range measurements {
		m := &measurements[i]
		var id int64
		if err := stmt.QueryRowContext(ctx,
			m.PacketID,
			m.Network,
			m.Node,
			m.Datatype,
			m.Unit,
			m.Value,
			m.MeasuredAt,
			m.ReceivedAt,
		).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert measurement %s: %w", m.Datatype, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug("Inserted measurements",
		zap.String("packet_id", measurements[0].PacketID),
		zap.Int("count", len(measurements)),
	)
	return nil
}

package chstore

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const chainStepsTableDDL = `
	CREATE TABLE IF NOT EXISTS chain_steps (
		run_id        String,
		chain_index   UInt32,
		step          UInt64,
		switches      UInt32,
		log_likelihood Float64,
		log_posterior Float64,
		num_components UInt32,
		temperature   Float64,
		recorded_at   DateTime
	) ENGINE = MergeTree()
	ORDER BY (run_id, chain_index, step)
`

// InitializeSchema creates the chain_steps table if it does not already
// exist.
func InitializeSchema(ctx context.Context, conn driver.Conn) error {
	if err := conn.Exec(ctx, chainStepsTableDDL); err != nil {
		return fmt.Errorf("chstore: creating chain_steps table: %w", err)
	}
	return nil
}

package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

// ============================================================================
// Business numbers
// ============================================================================
//
// Order and transaction numbers are a prefix, the wall clock down to the
// second and the low 8 digits of a snowflake id:
//
//	ORD20240115143052_12345678 -> "ORD" + "20240115143052" + "12345678"
//
// Snowflake ids are unique per node, so every process needs its own worker id.
// ============================================================================

var (
	node *snowflake.Node
	mu   sync.Mutex
)

// Init configures the snowflake node. It may be called again to switch node.
func Init(workerID int64) error {
	n, err := snowflake.NewNode(workerID)
	if err != nil {
		return errors.Wrapf(err, "snowflake node %d", workerID)
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// NextID returns the next snowflake id, initialising node 1 on first use.
func NextID() int64 {
	mu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	n := node
	mu.Unlock()
	return n.Generate().Int64()
}

func generate(prefix string) string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("%s%s%08d", prefix, timestamp, id%100000000)
}

// GenerateOrderNo returns a purchase order number.
func GenerateOrderNo() string {
	return generate("ORD")
}

// GenerateTransactionNo returns a balance movement number.
func GenerateTransactionNo() string {
	return generate("TXN")
}

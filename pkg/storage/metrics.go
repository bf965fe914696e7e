package storage

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type operation string

const (
	opSave   operation = "save"
	opLoad   operation = "load"
	opRemove operation = "remove"
)

var (
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filecache_operations_total",
		Help: "Total number of file cache operations.",
	}, []string{"operation" /* save | load | remove */, "status" /* ok | not_found | error */})
	bytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecache_bytes_written_total",
		Help: "Total number of payload bytes written to cache files.",
	})
	bytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecache_bytes_read_total",
		Help: "Total number of payload bytes read from cache files.",
	})
	provisionedDirs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecache_provisioned_dirs_total",
		Help: "Total number of shard directories created.",
	})
	clearedEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filecache_cleared_entries_total",
		Help: "Total number of entries removed by clear.",
	}, []string{"type" /* file | dir */})
	clearSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filecache_clear_skipped_total",
		Help: "Total number of entries clear failed to remove.",
	})
)

// observe counts one finished operation.
func observe(op operation, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrKeyNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	operations.WithLabelValues(string(op), status).Inc()
}

// The Redis port exposes the file cache over RESP, so any Redis client can read and write cache entries. Values set
// through SET are stored as strings; GET renders values of other shapes, e.g. documents saved by library callers, as
// JSON. Expiry options are not supported: cache entries live until they are deleted or flushed.

package port

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nobletooth/filecache/pkg/storage"
	"github.com/tidwall/redcon"
)

const RedisOk = "OK"

var address = flag.String("address", ":6380", "The ip:port to listen on for Redis protocol.")

// redisCommand represents a Redis command with its arguments.
type redisCommand struct {
	command string // Upper-cased command name.
	args    []string
}

// replyWriter is the part of redcon.Conn used to answer a command.
type replyWriter interface {
	WriteError(msg string)
	WriteString(str string)
	WriteBulkString(bulk string)
	WriteInt(num int)
	WriteArray(count int)
	WriteNull()
	Close() error
}

var _ replyWriter = (redcon.Conn)(nil)

// redisOutput conforms to a real Redis server output on non pub / sub commands.
type redisOutput struct {
	closeConnection bool    // Closes the connection if true.
	writeNil        bool    // Writes a nil value if true.
	err             *string // Error to return if set.
	writeInt        *int    // Writes an integer value if set.
	writeBulk       *string // Writes a bulk string if set.
	isArray         bool    // Writes `writeArray` as an array of bulk strings if true.
	writeArray      []string
	writeString     string // Writes a simple string otherwise.
}

func closeRedisConnection(msg string) redisOutput {
	return redisOutput{writeString: msg, closeConnection: true}
}

func writeRedisNil() redisOutput {
	return redisOutput{writeNil: true}
}

func writeRedisInt(i int) redisOutput {
	return redisOutput{writeInt: &i}
}

func writeRedisString(s string) redisOutput {
	return redisOutput{writeString: s}
}

func writeRedisBulk(s string) redisOutput {
	return redisOutput{writeBulk: &s}
}

func writeRedisArray(items []string) redisOutput {
	return redisOutput{isArray: true, writeArray: items}
}

func writeRedisError(err error) redisOutput {
	msg := "ERR " + err.Error()
	return redisOutput{err: &msg}
}

func wrongArgCount(command string) redisOutput {
	return writeRedisError(fmt.Errorf("wrong number of arguments for '%s' command", strings.ToLower(command)))
}

// writeTo sends the output to the client.
func (ro redisOutput) writeTo(conn replyWriter) {
	switch {
	case ro.err != nil:
		conn.WriteError(*ro.err)
	case ro.writeNil:
		conn.WriteNull()
	case ro.writeInt != nil:
		conn.WriteInt(*ro.writeInt)
	case ro.writeBulk != nil:
		conn.WriteBulkString(*ro.writeBulk)
	case ro.isArray:
		conn.WriteArray(len(ro.writeArray))
		for _, item := range ro.writeArray {
			conn.WriteBulkString(item)
		}
	default:
		conn.WriteString(ro.writeString)
	}
	if ro.closeConnection {
		if err := conn.Close(); err != nil {
			slog.Error("Failed to close connection.", "error", err)
		}
	}
}

// renderValue turns a cached value into a bulk string reply. Strings are sent as is, everything else as JSON.
func renderValue(value any) redisOutput {
	if str, isString := value.(string); isString {
		return writeRedisBulk(str)
	}
	rendered, err := json.Marshal(value)
	if err != nil {
		return writeRedisError(fmt.Errorf("failed to render value: %w", err))
	}
	return writeRedisBulk(string(rendered))
}

type redisHandler struct {
	backend *CacheBackend
}

// newRedisHandler creates a new redisHandler.
func newRedisHandler(backend *CacheBackend) (*redisHandler, error) {
	if backend == nil {
		return nil, errors.New("expected a non-nil backend")
	}
	return &redisHandler{backend: backend}, nil
}

func (rh *redisHandler) handle(cmd redisCommand) redisOutput {
	switch cmd.command {
	case "PING":
		switch len(cmd.args) {
		case 0:
			return writeRedisString("PONG")
		case 1:
			return writeRedisBulk(cmd.args[0])
		default:
			return wrongArgCount(cmd.command)
		}
	case "QUIT":
		return closeRedisConnection(RedisOk)
	case "SET":
		return rh.set(cmd)
	case "GET":
		if len(cmd.args) != 1 {
			return wrongArgCount(cmd.command)
		}
		if value, err := rh.backend.Get(cmd.args[0]); errors.Is(err, storage.ErrKeyNotFound) {
			return writeRedisNil()
		} else if err != nil {
			return writeRedisError(err)
		} else {
			return renderValue(value)
		}
	case "DEL":
		if len(cmd.args) < 1 {
			return wrongArgCount(cmd.command)
		}
		deletedCount := 0
		for _, key := range cmd.args {
			if err := rh.backend.Delete(key); err == nil {
				deletedCount++
			} else if !errors.Is(err, storage.ErrKeyNotFound) {
				return writeRedisError(err)
			}
		}
		return writeRedisInt(deletedCount)
	case "EXISTS":
		if len(cmd.args) < 1 {
			return wrongArgCount(cmd.command)
		}
		existing := 0
		for _, key := range cmd.args {
			exists, err := rh.backend.Exists(key)
			if err != nil {
				return writeRedisError(err)
			}
			if exists {
				existing++
			}
		}
		return writeRedisInt(existing)
	case "KEYS":
		if len(cmd.args) != 1 {
			return wrongArgCount(cmd.command)
		}
		keys, err := rh.backend.Keys(cmd.args[0])
		if err != nil {
			return writeRedisError(err)
		}
		return writeRedisArray(keys)
	case "FLUSHALL", "FLUSHDB":
		// ASYNC / SYNC modifiers are accepted; flushing is always synchronous.
		if len(cmd.args) > 1 {
			return wrongArgCount(cmd.command)
		}
		report := rh.backend.Flush()
		slog.Info("Flushed the cache.", "removedFiles", report.RemovedFiles, "skipped", report.Skipped)
		return writeRedisString(RedisOk)
	default:
		return writeRedisError(fmt.Errorf("unknown command '%s'", strings.ToLower(cmd.command)))
	}
}

// set handles `SET key value [NX | XX] [GET]`.
func (rh *redisHandler) set(cmd redisCommand) redisOutput {
	if len(cmd.args) < 2 {
		return wrongArgCount(cmd.command)
	}
	setCmd := SetCommand{key: cmd.args[0], value: cmd.args[1]}
	for _, option := range cmd.args[2:] {
		switch strings.ToUpper(option) {
		case "NX":
			if setCmd.existence == ifExists {
				return writeRedisError(errors.New("syntax error"))
			}
			setCmd.existence = ifNotExists
		case "XX":
			if setCmd.existence == ifNotExists {
				return writeRedisError(errors.New("syntax error"))
			}
			setCmd.existence = ifExists
		case "GET":
			setCmd.get = true
		default:
			return writeRedisError(errors.New("syntax error"))
		}
	}

	result := rh.backend.Set(setCmd)
	switch {
	case result.err != nil:
		return writeRedisError(result.err)
	case setCmd.get && !result.hasPreviousValue:
		return writeRedisNil()
	case setCmd.get:
		return renderValue(result.previousValue)
	case !result.couldSet:
		return writeRedisNil()
	default:
		return writeRedisString(RedisOk)
	}
}

// RunRedisServer starts a Redis protocol server over the given backend and blocks until `ctx` is done.
func RunRedisServer(ctx context.Context, backend *CacheBackend) error {
	if *address == "" {
		return errors.New("expected a non-empty --address flag")
	}

	redisHandler, err := newRedisHandler(backend)
	if err != nil {
		return fmt.Errorf("failed to create a new redis handler: %w", err)
	}

	redisServer := redcon.NewServerNetwork("tcp" /*net*/, *address,
		/*handler*/ func(conn redcon.Conn, cmd redcon.Command) {
			// Convert redcon.Command to redisCommand.
			command := redisCommand{command: strings.ToUpper(string(cmd.Args[0])), args: make([]string, len(cmd.Args)-1)}
			for i := 1; i < len(cmd.Args); i++ {
				command.args[i-1] = string(cmd.Args[i])
			}
			redisHandler.handle(command).writeTo(conn)
		},
		/*accept*/ func(conn redcon.Conn) bool {
			return true // Accept all connections.
		},
		/*close*/ func(conn redcon.Conn, err error) {
			if err != nil {
				slog.Debug("Connection closed with an error.", "remote", conn.RemoteAddr(), "error", err)
			}
		})

	serverErrSignal := make(chan error, 1)
	go func() {
		if err := redisServer.ListenAndServe(); err != nil {
			serverErrSignal <- err
		}
		close(serverErrSignal)
	}()
	slog.Info("Serving the Redis protocol.", "address", *address)

	select {
	case <-ctx.Done():
		if err := redisServer.Close(); err != nil {
			return fmt.Errorf("failed to close the redis server: %w", err)
		}
	case err := <-serverErrSignal:
		return fmt.Errorf("redis server stopped unexpectedly: %w", err)
	}

	return nil // Exited with no errors.
}

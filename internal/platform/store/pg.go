package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	pgNotifyChannel = "record_envelopes_changed"

	pgSchema = `CREATE TABLE IF NOT EXISTS record_envelopes (
	namespace TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
)

// PGBackend persists envelopes in a shared record_envelopes table, one row
// per namespace. External writers are observed through LISTEN/NOTIFY: every
// save issues pg_notify with the namespace as payload.
type PGBackend struct {
	pool      *pgxpool.Pool
	namespace string
	log       zerolog.Logger

	cancel context.CancelFunc
}

// NewPGBackend ensures the envelope table exists and returns a backend for
// the given namespace. The pool is shared across namespaces; Close does not
// close it.
func NewPGBackend(ctx context.Context, pool *pgxpool.Pool, namespace string, log zerolog.Logger) (*PGBackend, error) {
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		return nil, err
	}
	return &PGBackend{pool: pool, namespace: namespace, log: log}, nil
}

func (p *PGBackend) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM record_envelopes WHERE namespace = $1`, p.namespace,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *PGBackend) Save(ctx context.Context, data []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO record_envelopes (namespace, payload, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (namespace)
		 DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		p.namespace, data,
	)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, pgNotifyChannel, p.namespace)
	return err
}

// Watch holds a dedicated connection on LISTEN and invokes onChange for
// notifications carrying this backend's namespace. The listener reconnects
// with a short backoff if the connection drops.
func (p *PGBackend) Watch(onChange func()) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := p.listen(ctx, onChange); err != nil && ctx.Err() == nil {
				p.log.Warn().Err(err).Str("namespace", p.namespace).Msg("store listen dropped, reconnecting")
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return cancel, nil
}

func (p *PGBackend) listen(ctx context.Context, onChange func()) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+pgNotifyChannel); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Payload == p.namespace {
			onChange()
		}
	}
}

func (p *PGBackend) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// Package audit implementa el registro de actividad (auditoría) de los usuarios.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var _ ports.AuditLog = (*MongoSink)(nil)

// ErrQueueFull la cola de auditoría está llena y la entrada se descarta.
var ErrQueueFull = errors.New("cola de auditoría llena")

const defaultCollection = "activity_log"

// documentWriter subconjunto de *mongo.Collection usado por el sink.
type documentWriter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoSink encola las entradas y las inserta en MongoDB desde un worker en segundo plano.
// Record nunca espera a la base de datos.
type MongoSink struct {
	client *mongo.Client
	coll   documentWriter
	queue  chan ports.AuditEntry
	log    *logger.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

// MongoConfig opciones del sink.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	QueueSize  int
}

// NewMongoSink conecta, verifica con ping y arranca el worker.
func NewMongoSink(ctx context.Context, cfg MongoConfig, log *logger.Logger) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("conectar a mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping a mongodb: %w", err)
	}
	name := cfg.Collection
	if name == "" {
		name = defaultCollection
	}
	s := newSink(client.Database(cfg.Database).Collection(name), cfg.QueueSize, log)
	s.client = client
	return s, nil
}

// NewMongoSinkWithWriter permite inyectar la colección (tests).
func NewMongoSinkWithWriter(w documentWriter, queueSize int, log *logger.Logger) *MongoSink {
	return newSink(w, queueSize, log)
}

func newSink(w documentWriter, queueSize int, log *logger.Logger) *MongoSink {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &MongoSink{
		coll:  w,
		queue: make(chan ports.AuditEntry, queueSize),
		log:   log.Component("audit"),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Record encola la entrada; si la cola está llena devuelve ErrQueueFull.
func (s *MongoSink) Record(_ context.Context, entry ports.AuditEntry) error {
	select {
	case s.queue <- entry:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *MongoSink) run() {
	defer s.wg.Done()
	for entry := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := s.coll.InsertOne(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("action", entry.Action).Str("entity_id", entry.EntityID).
				Msg("no se pudo insertar la entrada de auditoría")
		}
		cancel()
	}
}

// Close vacía la cola y desconecta el cliente.
func (s *MongoSink) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

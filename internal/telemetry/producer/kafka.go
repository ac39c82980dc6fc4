package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	auditdomain "loyalty-accounts/internal/audit/domain"
	"loyalty-accounts/internal/platform/logger"
)

const writeTimeout = 5 * time.Second

// JobEvent is the JSON payload published for each job execution.
type JobEvent struct {
	ExecutionID      string  `json:"execution_id"`
	JobName          string  `json:"job_name"`
	ExecutionDate    string  `json:"execution_date"`
	Success          bool    `json:"success"`
	RecordsProcessed int     `json:"records_processed"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	DurationMs       int64   `json:"duration_ms"`
	RecordedAt       string  `json:"recorded_at"`
}

func newJobEvent(exec *auditdomain.JobExecution) JobEvent {
	return JobEvent{
		ExecutionID:      exec.ID,
		JobName:          exec.JobName,
		ExecutionDate:    exec.ExecutionDate.Format(time.DateOnly),
		Success:          exec.Success,
		RecordsProcessed: exec.RecordsProcessed,
		ErrorMessage:     exec.ErrorMessage,
		DurationMs:       exec.DurationMs,
		RecordedAt:       exec.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}

// messageWriter is the part of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer implements Producer using segmentio/kafka-go.
type KafkaProducer struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaProducer creates a producer writing job events to topic. It returns nil when brokers
// or topic is empty, which disables publishing; a nil *KafkaProducer is safe to use.
func NewKafkaProducer(brokers []string, topic string, l *zap.Logger) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: writer, topic: topic, logger: logger.OrNop(l)}
}

// Emit writes exec as JSON keyed by job name, so runs of one job stay ordered within a partition.
func (p *KafkaProducer) Emit(ctx context.Context, exec *auditdomain.JobExecution) error {
	if p == nil || p.writer == nil || exec == nil {
		return nil
	}
	payload, err := json.Marshal(newJobEvent(exec))
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(exec.JobName),
		Value: payload,
	})
	if err != nil {
		p.logger.Warn("kafka emit failed",
			zap.String("topic", p.topic),
			zap.String("job", exec.JobName),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

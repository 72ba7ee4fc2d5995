// Package events fans run progress out to Server-Sent Events subscribers.
package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/go-logr/logr"
)

// Event types sent to subscribers.
const (
	EventConnected   = "connected"
	EventLog         = "log"
	EventStage       = "stage"
	EventProbeResult = "probe_result"
	EventRunFinished = "run_finished"
)

// clientBuffer is the number of messages queued per subscriber before new
// messages are dropped for that subscriber.
const clientBuffer = 32

// Broker manages SSE subscribers and broadcasts events to them.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
	logger  logr.Logger
}

// NewBroker creates an empty Broker.
func NewBroker(logger logr.Logger) *Broker {
	return &Broker{
		clients: make(map[chan string]struct{}),
		logger:  logger,
	}
}

// Subscribe registers a new client. The returned function unregisters it and
// closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan string, func()) {
	client := make(chan string, clientBuffer)

	b.mu.Lock()
	b.clients[client] = struct{}{}
	total := len(b.clients)
	b.mu.Unlock()
	b.logger.V(1).Info("sse client connected", "total", total)

	var once sync.Once
	return client, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, client)
			close(client)
			total := len(b.clients)
			b.mu.Unlock()
			b.logger.V(1).Info("sse client disconnected", "total", total)
		})
	}
}

// Clients returns the number of connected subscribers.
func (b *Broker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Broadcast sends an event to every subscriber. Subscribers whose buffer is
// full miss the event.
func (b *Broker) Broadcast(eventType string, data any) {
	message, err := Format(eventType, data)
	if err != nil {
		b.logger.Error(err, "failed to marshal event", "event", eventType)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- message:
		default:
			b.logger.V(1).Info("sse client buffer full, dropping event", "event", eventType)
		}
	}
}

// Format renders one SSE message.
func Format(eventType string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload), nil
}

// OnLog broadcasts a run log line.
func (b *Broker) OnLog(entry domain.LogEntry) { b.Broadcast(EventLog, entry) }

// OnStage broadcasts a stage transition.
func (b *Broker) OnStage(stage domain.Stage) { b.Broadcast(EventStage, stage) }

// ProbeResult is the payload of a probe_result event.
type ProbeResult struct {
	Index  int                `json:"index"`
	Result domain.CheckResult `json:"result"`
}

// OnProbeResult broadcasts one connectivity check. Its signature matches
// probe.ResultFunc.
func (b *Broker) OnProbeResult(index int, result domain.CheckResult) {
	b.Broadcast(EventProbeResult, ProbeResult{Index: index, Result: result})
}

// RunFinished is the payload of a run_finished event.
type RunFinished struct {
	Run   *domain.Run `json:"run"`
	Error string      `json:"error,omitempty"`
	Kind  string      `json:"errorKind,omitempty"`
}

// OnRunFinished broadcasts the final state of a provisioning run.
func (b *Broker) OnRunFinished(run *domain.Run, err error) {
	payload := RunFinished{Run: run}
	if err != nil {
		payload.Error = err.Error()
		payload.Kind = domain.Kind(err)
	}
	b.Broadcast(EventRunFinished, payload)
}

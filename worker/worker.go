// Package worker runs assistant reply generation off the request path and
// streams the result to the user's SSE connection. Jobs are partitioned by
// user id so one user's messages are processed in order.
package worker

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/sse"
)

// Generator produces the assistant reply for one user turn.
type Generator interface {
	Generate(ctx context.Context, userID, text string) string
}

// ChatJob is one queued user message.
type ChatJob struct {
	UserID string
	Text   string
}

// chunkWords is how many words each streamed SSE chunk carries.
const chunkWords = 8

// Pool is a fixed-size worker pool with one buffered channel per partition.
type Pool struct {
	workers    int
	gen        Generator
	partitions []chan ChatJob
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Metrics
	mu                 sync.RWMutex
	jobsProcessed      uint64
	processingDuration uint64
	jobsDropped        uint64
}

// NewPool builds a pool of the given size.
func NewPool(workers int, gen Generator) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan ChatJob, workers)
	for i := range partitions {
		partitions[i] = make(chan ChatJob, 100)
	}
	return &Pool{
		workers:    workers,
		gen:        gen,
		partitions: partitions,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	logger.Get().Info("starting chat worker pool", zap.Int("workers", p.workers))
	for i := range p.partitions {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the workers and waits for them to drain.
func (p *Pool) Stop() {
	logger.Get().Info("stopping chat worker pool")
	p.cancelFunc()
	for _, ch := range p.partitions {
		close(ch)
	}
	p.wg.Wait()
}

// Submit enqueues a job on the partition owning the user.
func (p *Pool) Submit(job ChatJob) {
	partition := p.partitionFor(job.UserID)
	select {
	case p.partitions[partition] <- job:
		logger.Get().Debug("chat job submitted",
			zap.String("user_id", job.UserID),
			zap.Int("partition", partition))
	case <-p.ctx.Done():
		p.mu.Lock()
		p.jobsDropped++
		p.mu.Unlock()
		logger.Get().Warn("worker pool is stopped, job not submitted",
			zap.String("user_id", job.UserID))
	}
}

func (p *Pool) partitionFor(userID string) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32()) % p.workers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.partitions[id]:
			if !ok {
				logger.Get().Info("worker stopping", zap.Int("worker_id", id))
				return
			}
			start := time.Now()

			reply := p.gen.Generate(p.ctx, job.UserID, job.Text)
			streamReply(job.UserID, reply)

			p.mu.Lock()
			p.jobsProcessed++
			p.processingDuration += uint64(time.Since(start).Milliseconds())
			p.mu.Unlock()

		case <-p.ctx.Done():
			logger.Get().Info("worker stopping due to context cancellation", zap.Int("worker_id", id))
			return
		}
	}
}

func streamReply(userID, reply string) {
	words := strings.Fields(reply)
	for start := 0; start < len(words); start += chunkWords {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}
		sse.SendChunk(userID, strings.Join(words[start:end], " "))
	}
	sse.SendDone(userID)
}

// MetricsHandler reports pool counters as JSON.
func (p *Pool) MetricsHandler(c *gin.Context) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var avgProcessingTime float64
	if p.jobsProcessed > 0 {
		avgProcessingTime = float64(p.processingDuration) / float64(p.jobsProcessed)
	}

	c.JSON(200, gin.H{
		"jobs_processed":    p.jobsProcessed,
		"jobs_dropped":      p.jobsDropped,
		"avg_processing_ms": avgProcessingTime,
		"active_workers":    p.workers,
	})
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"casedeck-backend/internal/services"
	"casedeck-backend/internal/storage"
)

// Pool consumes the image-cleanup queue: references that stopped being
// reachable from any case (deleted case, replaced image) get removed from
// storage in the background instead of inline with the save.
type Pool struct {
	redis       *redis.Client
	images      storage.ImageStore
	workerCount int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewPool(redisClient *redis.Client, images storage.ImageStore, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		images:      images,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		default:
		}

		// Short blocking pop so Stop is honored promptly.
		res, err := p.redis.BRPop(context.Background(), 2*time.Second, services.CleanupQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("Worker %d: queue read failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}

		var job services.CleanupJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Printf("Worker %d: dropping malformed cleanup job: %v", id, err)
			continue
		}

		p.process(id, job)
	}
}

func (p *Pool) process(id int, job services.CleanupJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, ref := range job.Refs {
		if !p.images.Owns(ref) {
			// Foreign URL that was pasted in rather than uploaded here.
			continue
		}
		if err := p.images.Remove(ctx, ref); err != nil {
			log.Printf("Worker %d: failed to remove image %s: %v", id, ref, err)
			continue
		}
		log.Printf("Worker %d: removed orphaned image %s", id, ref)
	}
}

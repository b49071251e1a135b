package db

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parisxmas/vacancyform/internal/oxidb"
)

// Pool is a round-robin set of OxiDB connections with keepalive and
// reconnect.
type Pool struct {
	addr    string
	clients []*oxidb.Client
	mu      sync.RWMutex
	idx     uint64
	stop    chan struct{}
	done    chan struct{}
}

// NewPool opens size connections to addr and pings them every interval.
// A zero interval disables keepalive.
func NewPool(ctx context.Context, addr string, size int, interval time.Duration) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		addr:    addr,
		clients: make([]*oxidb.Client, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(ctx, addr)
		if err != nil {
			p.closeClients()
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	if interval > 0 {
		go p.keepalive(interval)
	} else {
		close(p.done)
	}
	return p, nil
}

// Get returns the next client in round-robin order. A client whose stream
// broke is replaced before it is handed out.
func (p *Pool) Get() *oxidb.Client {
	n := atomic.AddUint64(&p.idx, 1)
	i := int(n % uint64(len(p.clients)))
	p.mu.RLock()
	c := p.clients[i]
	p.mu.RUnlock()
	if !c.Broken() {
		return c
	}
	p.reconnect(i, c)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clients[i]
}

// Ping checks one connection.
func (p *Pool) Ping(ctx context.Context) error {
	_, err := p.Get().Ping(ctx)
	return err
}

// reconnect replaces slot i if it still holds old.
func (p *Pool) reconnect(i int, old *oxidb.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := oxidb.Connect(ctx, p.addr)
	if err != nil {
		log.Printf("pool: reconnect client %d failed: %v", i, err)
		return
	}
	p.mu.Lock()
	if p.clients[i] != old {
		p.mu.Unlock()
		c.Close()
		return
	}
	p.clients[i] = c
	p.mu.Unlock()
	old.Close()
}

func (p *Pool) keepalive(interval time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := range p.clients {
				p.mu.RLock()
				c := p.clients[i]
				p.mu.RUnlock()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_, err := c.Ping(ctx)
				cancel()
				if err != nil {
					log.Printf("pool: client %d ping failed, reconnecting: %v", i, err)
					p.reconnect(i, c)
				}
			}
		}
	}
}

// Close stops keepalive and closes all connections.
func (p *Pool) Close() {
	close(p.stop)
	<-p.done
	p.closeClients()
}

func (p *Pool) closeClients() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		if c != nil {
			c.Close()
		}
	}
}

// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package authoritydiscovery periodically resolves the addresses of
// the current authorities and keeps them in an address cache that
// can be queried in both directions: by authority for dialing, and
// by peer for attributing inbound connections to authorities.
package authoritydiscovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethersphere/authdisc/pkg/addrcache"
	"github.com/ethersphere/authdisc/pkg/addressbook"
	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru"
	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
	"resenje.org/singleflight"
)

const (
	defaultRefreshInterval       = 10 * time.Minute
	defaultLookupTimeout         = 30 * time.Second
	defaultMaxConcurrentLookups  = 16
	defaultFailedLookupBackoff   = time.Minute
	defaultFailedLookupCacheSize = 1024
	closeTimeout                 = 5 * time.Second
)

var (
	// ErrNotFound is returned by Lookup when the authority has no
	// address with a peer id or no published addresses at all.
	ErrNotFound = errors.New("authoritydiscovery: addresses not found")
	// ErrNoRecord is wrapped by the errors of Resolvers that found no
	// addresses published by the authority.
	ErrNoRecord = errors.New("authoritydiscovery: no address record")
	// ErrBackoff is returned by Lookup when a recent lookup for the
	// same authority failed.
	ErrBackoff = errors.New("authoritydiscovery: lookup backoff")
	// ErrRefreshInProgress is returned by Refresh when another
	// refresh round has not finished yet.
	ErrRefreshInProgress = errors.New("authoritydiscovery: refresh in progress")
)

// Resolver finds the addresses published by an authority, usually
// through a distributed hash table.
type Resolver interface {
	Resolve(ctx context.Context, id authority.ID) ([]ma.Multiaddr, error)
}

// AuthoritySource provides the authority set of the current session.
type AuthoritySource interface {
	Authorities(ctx context.Context) ([]authority.ID, error)
}

// Options configure the Worker. Zero values are replaced by defaults.
type Options struct {
	RefreshInterval       time.Duration
	LookupTimeout         time.Duration
	MaxConcurrentLookups  int
	FailedLookupBackoff   time.Duration
	FailedLookupCacheSize int
	// AddressBook, if set, receives the cache contents after every
	// refresh round and on Close.
	AddressBook addressbook.Store
	// RestoreAddresses preloads the cache from AddressBook on New. By
	// default the cache starts empty.
	RestoreAddresses bool
}

// Worker drives an address cache and serializes access to it.
type Worker struct {
	resolver Resolver
	source   AuthoritySource
	logger   logging.Logger
	metrics  metrics

	refreshInterval time.Duration
	lookupTimeout   time.Duration
	backoff         time.Duration

	mu    sync.RWMutex // guards every operation on cache
	cache *addrcache.Cache
	book  addressbook.Store

	failed      *lru.Cache // authority.ID -> time.Time of the last failed lookup
	lookups     singleflight.Group[authority.ID, []ma.Multiaddr]
	sem         *semaphore.Weighted
	refreshing  atomic.Bool
	lastRefresh atomic.Int64
	now         func() time.Time

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New constructs a Worker with an empty address cache, unless
// restoring from the address book is requested. The refresh loop is
// started by Start.
func New(resolver Resolver, source AuthoritySource, logger logging.Logger, o Options) (*Worker, error) {
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = defaultRefreshInterval
	}
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = defaultLookupTimeout
	}
	if o.MaxConcurrentLookups <= 0 {
		o.MaxConcurrentLookups = defaultMaxConcurrentLookups
	}
	if o.FailedLookupBackoff <= 0 {
		o.FailedLookupBackoff = defaultFailedLookupBackoff
	}
	if o.FailedLookupCacheSize <= 0 {
		o.FailedLookupCacheSize = defaultFailedLookupCacheSize
	}

	failed, err := lru.New(o.FailedLookupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed lookup cache: %w", err)
	}

	w := &Worker{
		resolver:        resolver,
		source:          source,
		logger:          logger,
		metrics:         newMetrics(),
		refreshInterval: o.RefreshInterval,
		lookupTimeout:   o.LookupTimeout,
		backoff:         o.FailedLookupBackoff,
		cache:           addrcache.New(logger),
		book:            o.AddressBook,
		failed:          failed,
		sem:             semaphore.NewWeighted(int64(o.MaxConcurrentLookups)),
		now:             time.Now,
		quit:            make(chan struct{}),
	}

	if w.book != nil && o.RestoreAddresses {
		if err := w.load(); err != nil {
			return nil, fmt.Errorf("address book: %w", err)
		}
	}

	return w, nil
}

// Start runs a refresh round immediately and then on every refresh
// interval until Close is called.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		<-w.quit
		cancel()
	}()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.refreshInterval)
		defer ticker.Stop()

		for {
			if err := w.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Errorf("authority discovery: refresh: %v", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Refresh runs one discovery round. Authorities that left the current
// set are dropped from the cache and the addresses of the remaining
// ones are resolved again. Failed lookups are logged and put into
// backoff; only a failure to obtain the authority set is returned.
func (w *Worker) Refresh(ctx context.Context) error {
	if !w.refreshing.CAS(false, true) {
		return ErrRefreshInProgress
	}
	defer w.refreshing.Store(false)

	w.metrics.RefreshCount.Inc()

	ids, err := w.source.Authorities(ctx)
	if err != nil {
		return fmt.Errorf("authority set: %w", err)
	}
	ids = unique(ids)

	w.mu.Lock()
	w.cache.RetainIDs(ids)
	w.mu.Unlock()

	var (
		mtx  sync.Mutex
		wg   sync.WaitGroup
		errs *multierror.Error
	)
	for _, id := range ids {
		if w.inBackoff(id) {
			w.metrics.LookupSkipped.Inc()
			continue
		}
		if err := w.sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(id authority.ID) {
			defer func() {
				w.sem.Release(1)
				wg.Done()
			}()

			if err := w.resolve(ctx, id); err != nil {
				mtx.Lock()
				errs = multierror.Append(errs, err)
				mtx.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		w.logger.Debugf("authority discovery: refresh: %v", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if w.book != nil {
		if err := w.persist(); err != nil {
			w.logger.Warningf("authority discovery: persist addresses: %v", err)
		}
	}

	now := w.now()
	w.lastRefresh.Store(now.UnixNano())
	w.metrics.LastRefreshTimestamp.Set(float64(now.Unix()))
	w.logger.Debugf("authority discovery: refreshed %d authorities, %d cached", len(ids), w.NumAuthorityIDs())
	return nil
}

// Lookup returns the cached addresses of the authority, resolving
// them first if the authority is not in the cache. Concurrent lookups
// for the same authority share one resolution.
func (w *Worker) Lookup(ctx context.Context, id authority.ID) ([]ma.Multiaddr, error) {
	if addrs, ok := w.Addresses(id); ok {
		return addrs, nil
	}
	if w.inBackoff(id) {
		w.metrics.LookupSkipped.Inc()
		return nil, ErrBackoff
	}

	addrs, _, err := w.lookups.Do(ctx, id, func(ctx context.Context) ([]ma.Multiaddr, error) {
		if err := w.resolve(ctx, id); err != nil {
			if errors.Is(err, ErrNoRecord) {
				return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
			}
			return nil, err
		}
		addrs, ok := w.Addresses(id)
		if !ok {
			return nil, ErrNotFound
		}
		return addrs, nil
	})
	return addrs, err
}

// Addresses returns the cached addresses of the authority.
func (w *Worker) Addresses(id authority.ID) ([]ma.Multiaddr, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.cache.Addresses(id)
}

// AuthorityIDs returns the authorities reachable through the peer.
func (w *Worker) AuthorityIDs(p peer.ID) ([]authority.ID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.cache.AuthorityIDs(p)
}

// NumAuthorityIDs returns the number of cached authorities.
func (w *Worker) NumAuthorityIDs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.cache.NumAuthorityIDs()
}

// LastRefresh returns the time when the last refresh round completed.
// It is the zero time if no round has completed yet.
func (w *Worker) LastRefresh() time.Time {
	v := w.lastRefresh.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}

// Close stops the refresh loop and saves the cache to the address
// book. Calls after the first one return nil.
func (w *Worker) Close() (err error) {
	w.closeOnce.Do(func() {
		err = w.close()
	})
	return err
}

func (w *Worker) close() error {
	close(w.quit)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		w.wg.Wait()
	}()

	select {
	case <-stopped:
	case <-time.After(closeTimeout):
		return errors.New("authority discovery: waited 5 seconds to close active goroutines")
	}

	if w.book != nil {
		if err := w.persist(); err != nil {
			return fmt.Errorf("persist addresses: %w", err)
		}
	}
	return nil
}

// load inserts the address book entries into the cache. Entries of
// authorities that left the set are dropped by the first refresh.
func (w *Worker) load() error {
	var n int
	err := w.book.IterateAuthorities(func(id authority.ID, addrs []ma.Multiaddr) (bool, error) {
		w.cache.Insert(id, addrs)
		n++
		return false, nil
	})
	if err != nil {
		return err
	}
	w.logger.Debugf("authority discovery: loaded %d authorities from the address book", n)
	return nil
}

// persist replaces the address book entries with the cache contents.
func (w *Worker) persist() error {
	w.mu.RLock()
	entries := make(map[authority.ID][]ma.Multiaddr, w.cache.NumAuthorityIDs())
	for _, id := range w.cache.IDs() {
		entries[id], _ = w.cache.Addresses(id)
	}
	w.mu.RUnlock()

	stored, err := w.book.AuthorityIDs()
	if err != nil {
		return err
	}

	var mErr *multierror.Error
	for _, id := range stored {
		if _, ok := entries[id]; ok {
			continue
		}
		if err := w.book.Remove(id); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	for id, addrs := range entries {
		if err := w.book.Put(id, addrs); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	return mErr.ErrorOrNil()
}

func (w *Worker) resolve(ctx context.Context, id authority.ID) error {
	w.metrics.LookupCount.Inc()

	ctx, cancel := context.WithTimeout(ctx, w.lookupTimeout)
	defer cancel()

	addrs, err := w.resolver.Resolve(ctx, id)
	if err != nil {
		w.metrics.LookupFailures.Inc()
		w.failed.Add(id, w.now())
		return fmt.Errorf("resolve %s: %w", id, err)
	}
	w.failed.Remove(id)

	w.mu.Lock()
	w.cache.Insert(id, addrs)
	w.mu.Unlock()

	return nil
}

func (w *Worker) inBackoff(id authority.ID) bool {
	v, ok := w.failed.Get(id)
	if !ok {
		return false
	}
	if t, ok := v.(time.Time); ok && w.now().Sub(t) < w.backoff {
		return true
	}
	w.failed.Remove(id)
	return false
}

func unique(ids []authority.ID) []authority.ID {
	seen := make(map[authority.ID]struct{}, len(ids))
	u := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		u = append(u, id)
	}
	return u
}

// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/authoritydiscovery"
	"github.com/ethersphere/authdisc/pkg/jsonhttp"
	"github.com/gorilla/mux"
	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

type authoritiesResponse struct {
	Count       int        `json:"count"`
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
}

func (s *Service) authoritiesHandler(w http.ResponseWriter, _ *http.Request) {
	resp := authoritiesResponse{
		Count: s.discoverer.NumAuthorityIDs(),
	}
	if t := s.discoverer.LastRefresh(); !t.IsZero() {
		resp.LastRefresh = &t
	}
	jsonhttp.OK(w, resp)
}

type addressesResponse struct {
	Addresses []string `json:"addresses"`
}

func newAddressesResponse(addrs []ma.Multiaddr) addressesResponse {
	r := addressesResponse{
		Addresses: make([]string, 0, len(addrs)),
	}
	for _, a := range addrs {
		r.Addresses = append(r.Addresses, a.String())
	}
	return r
}

func (s *Service) authorityAddressesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseAuthorityID(w, r)
	if !ok {
		return
	}

	addrs, ok := s.discoverer.Addresses(id)
	if !ok {
		jsonhttp.NotFound(w, "authority not found")
		return
	}
	jsonhttp.OK(w, newAddressesResponse(addrs))
}

func (s *Service) authorityLookupHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseAuthorityID(w, r)
	if !ok {
		return
	}

	addrs, err := s.discoverer.Lookup(r.Context(), id)
	if err != nil {
		s.logger.Debugf("debug api: lookup authority %s: %v", id, err)
		switch {
		case errors.Is(err, authoritydiscovery.ErrNotFound):
			jsonhttp.NotFound(w, "authority addresses not found")
		case errors.Is(err, authoritydiscovery.ErrBackoff):
			jsonhttp.TooManyRequests(w, "lookup failed recently")
		default:
			s.logger.Errorf("debug api: lookup authority %s failed", id)
			jsonhttp.InternalServerError(w, "lookup failed")
		}
		return
	}
	jsonhttp.OK(w, newAddressesResponse(addrs))
}

type peerAuthoritiesResponse struct {
	Authorities []authority.ID `json:"authorities"`
}

func (s *Service) peerAuthoritiesHandler(w http.ResponseWriter, r *http.Request) {
	str := mux.Vars(r)["peer-id"]
	p, err := peer.Decode(str)
	if err != nil {
		s.logger.Debugf("debug api: parse peer id %s: %v", str, err)
		jsonhttp.BadRequest(w, "invalid peer id")
		return
	}

	ids, ok := s.discoverer.AuthorityIDs(p)
	if !ok {
		jsonhttp.NotFound(w, "peer not found")
		return
	}
	jsonhttp.OK(w, peerAuthoritiesResponse{
		Authorities: ids,
	})
}

func (s *Service) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.discoverer.Refresh(r.Context()); err != nil {
		s.logger.Debugf("debug api: refresh: %v", err)
		if errors.Is(err, authoritydiscovery.ErrRefreshInProgress) {
			jsonhttp.Conflict(w, "refresh in progress")
			return
		}
		s.logger.Error("debug api: refresh failed")
		jsonhttp.InternalServerError(w, "refresh failed")
		return
	}
	s.authoritiesHandler(w, r)
}

func (s *Service) parseAuthorityID(w http.ResponseWriter, r *http.Request) (authority.ID, bool) {
	str := mux.Vars(r)["id"]
	id, err := authority.ParseHexID(str)
	if err != nil {
		s.logger.Debugf("debug api: parse authority id %s: %v", str, err)
		jsonhttp.BadRequest(w, "invalid authority id")
		return authority.ZeroID, false
	}
	return id, true
}

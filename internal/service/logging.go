package service

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/theckman/httpforwarded"
)

// statusCapturer records the status code a downstream handler wrote, for
// access logging, without buffering the body.
type statusCapturer struct {
	http.ResponseWriter
	statusCode int
}

func (sc *statusCapturer) WriteHeader(statusCode int) {
	sc.statusCode = statusCode
	sc.ResponseWriter.WriteHeader(statusCode)
}

// requestLoggingMiddleware logs one line per request: method, path, status,
// duration, and the originating client address. The client address prefers
// the RFC 7239 Forwarded header over RemoteAddr, since this service is
// typically deployed behind a load balancer or reverse proxy.
func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sc := &statusCapturer{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sc, r)

		log.Debugf("%s %s status=%d duration=%s client=%s",
			r.Method, r.URL.Path, sc.statusCode, time.Since(start), clientAddr(r))
	})
}

// clientAddr extracts the original client address from the Forwarded
// header, falling back to RemoteAddr when the header is absent or
// unparseable.
func clientAddr(r *http.Request) string {
	hops := httpforwarded.ParseForwarded(r.Header[http.CanonicalHeaderKey("Forwarded")])
	if len(hops) == 0 {
		return r.RemoteAddr
	}
	last := hops[len(hops)-1]
	if forVals, ok := last["for"]; ok && len(forVals) > 0 {
		return forVals[0]
	}
	return r.RemoteAddr
}

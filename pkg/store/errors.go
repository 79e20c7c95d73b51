/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import "errors"

var (
	errNilConfig              = errors.New("store: config must not be nil")
	errMTLSRequired           = errors.New("store: mTLS configuration required")
	errFailedToLoadClientCert = errors.New("store: failed to load client certificate")
	errFailedToReadCACert     = errors.New("store: failed to read CA certificate")
	errFailedToParseCACert    = errors.New("store: failed to parse CA certificate")
	errNATSNotConfigured      = errors.New("store: NATS connection factory not configured")
	errNATSURLRequired        = errors.New("store: nats_url is required")
	errBucketRequired         = errors.New("store: bucket is required")
	errSecurityRequired       = errors.New("store: security configuration is required for mTLS")
	errCertFileRequired       = errors.New("store: tls.cert_file is required for mTLS")
	errKeyFileRequired        = errors.New("store: tls.key_file is required for mTLS")
	errCAFileRequired         = errors.New("store: tls.ca_file is required for mTLS")
	errBucketMaxBytesNegative = errors.New("store: bucket_max_bytes must not be negative")
)

// Package resilience provides a bulkhead that caps concurrent transport
// calls, usable directly or as provider middleware.
package resilience

package netutil

import (
	"net"
	"net/http"
	"strings"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
)

const forwardedForHeaderName = "X-Forwarded-For"

type IpMetadata struct {
	City    string
	Country string
}

type maxMindRecord struct {
	City struct {
		Names struct {
			En string `maxminddb:"en"`
		} `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// GetClientIP gets the IP of the client that originated the HTTP request. The
// first X-Forwarded-For entry wins over the connection's remote address.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get(forwardedForHeaderName); len(forwarded) > 0 {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if len(first) > 0 {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// GetIpMetadata gets metadata about an IP. Information is provided on a best-effort
// basis.
func GetIpMetadata(db *maxminddb.Reader, ip string) (*IpMetadata, error) {
	if db == nil {
		return &IpMetadata{}, nil
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, errors.New("cannot parse ip")
	}

	var record maxMindRecord
	err := db.Lookup(parsed, &record)
	if err != nil {
		return nil, errors.Wrap(err, "error looking up ip metadata")
	}

	return &IpMetadata{
		City:    record.City.Names.En,
		Country: record.Country.ISOCode,
	}, nil
}

// Command dnsquery sends a single DNS query straight to a nameserver and
// prints the answer, bypassing the registry/engine entirely. It is a
// troubleshooting tool for checking what a given nameserver actually
// returns, independent of how resolverd would interpret it.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/miekg/dns"
)

func main() {
	var (
		server  = flag.String("server", "8.8.8.8:53", "nameserver HOST:PORT")
		name    = flag.String("name", "example.com", "query name")
		qtype   = flag.String("qtype", "A", "query type (A, AAAA, SRV, NAPTR, TXT, ...)")
		timeout = flag.Duration("timeout", 2*time.Second, "exchange timeout")
		quiet   = flag.Bool("quiet", false, "suppress output (exit status indicates success)")
	)
	flag.Parse()

	rrType, ok := dns.StringToType[*qtype]
	if !ok {
		fmt.Fprintf(os.Stderr, "dnsquery: unknown query type %q\n", *qtype)
		os.Exit(2)
	}

	resp, err := query(*server, *name, rrType, *timeout)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	fmt.Printf("id=%d rcode=%s answers=%d authorities=%d additionals=%d\n",
		resp.Id,
		dns.RcodeToString[resp.Rcode],
		len(resp.Answer),
		len(resp.Ns),
		len(resp.Extra),
	)

	rows := make([]string, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		rows = append(rows, rr.String())
	}
	sort.Strings(rows)
	for _, row := range rows {
		fmt.Println(row)
	}
}

func query(server, name string, rrType uint16, timeout time.Duration) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), rrType)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: timeout}
	resp, _, err := client.Exchange(msg, server)
	if err != nil {
		return nil, fmt.Errorf("exchange with %s: %w", server, err)
	}
	return resp, nil
}

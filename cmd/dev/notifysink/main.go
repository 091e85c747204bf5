package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"deliveries/pkg/config"
	"deliveries/pkg/notify"
)

// notifysink stands in for the mail relay during local development. Point NOTIFY_URL at it and
// every notification the API sends is verified and printed.
func main() {
	var (
		addr   = flag.String("addr", ":8089", "listen address")
		secret = flag.String("secret", "", "NOTIFY_SECRET used by the API")
	)
	flag.Parse()

	if *secret == "" {
		*secret = config.Load().Notify.Secret
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret (or NOTIFY_SECRET in env/.env)")
		os.Exit(2)
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !notify.Verify(body, r.Header.Get(notify.SignatureHeader), *secret) {
			fmt.Printf("%s rejected: bad signature\n", time.Now().Format(time.RFC3339))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var m notify.Message
		if err := json.Unmarshal(body, &m); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		pretty, _ := json.MarshalIndent(m.Data, "  ", "  ")
		fmt.Printf("%s kind=%s to=%s\n  subject=%q\n  %s\n",
			time.Now().Format(time.RFC3339), m.Kind, strings.Join(m.To, ","), m.Subject, pretty)
		w.WriteHeader(http.StatusAccepted)
	})

	fmt.Printf("notify sink listening on %s\n", *addr)
	srv := &http.Server{Addr: *addr, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"log"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/ndlib/chonk/store"
)

// splitBucketPrefix will take a path and separate the bucket name from a
// prefix, if any. The prefix returned is either empty or ends with a
// slash "/".
//
// examples:
//		"" -> ("", "")
//		"bucket" -> ("bucket", "")
//		"/bucket" -> ("bucket", "")
//		"/bucket/and/a/prefix" -> ("bucket", "and/a/prefix/")
func splitBucketPrefix(location string) (bucket, prefix string) {
	if location == "" {
		return
	}
	location = strings.TrimPrefix(location, "/")
	v := strings.SplitN(location, "/", 2)
	bucket = v[0]
	if len(v) > 1 {
		prefix = path.Clean(v[1])
		if prefix == "." {
			prefix = ""
		}
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}
	return
}

// parselocation will create an appropriate store based on "location".
// In case of an error, nil is returned.
// If location is empty, a memory store is returned.
// It understands plain paths and the schemes "file:", "s3:", "redis:",
// "mysql:", and "ql:".
func parselocation(location string) store.Store {
	if location == "" {
		return store.NewMemory()
	}
	u, err := url.Parse(location)
	if err != nil {
		// not every location is a well formed URL; a mysql DSN in
		// particular may not parse. Fall back on the scheme prefix.
		u = &url.URL{}
		if i := strings.Index(location, ":"); i >= 0 {
			u.Scheme = location[:i]
		}
	}
	switch u.Scheme {
	case "", "file":
		p := strings.TrimPrefix(location, "file:")
		p = strings.TrimPrefix(p, "//")
		os.MkdirAll(p, 0755)
		return store.NewFileSystem(p)
	case "s3":
		conf := &aws.Config{}
		if u.Host != "" {
			conf.Endpoint = aws.String(u.Host)
			conf.Region = aws.String("us-east-1")
			// disable SSL for local development
			if strings.Contains(u.Host, "localhost") {
				conf.DisableSSL = aws.Bool(true)
				conf.S3ForcePathStyle = aws.Bool(true)
			}
		}
		bucket, prefix := splitBucketPrefix(u.Path)
		if bucket == "" {
			log.Println("Error parsing location, no bucket name", location)
			return nil
		}
		return store.NewS3(bucket, prefix, session.New(conf))
	case "redis", "rediss":
		s, err := store.NewRedis(location)
		if err != nil {
			log.Println("Error parsing location,", err)
			return nil
		}
		return s
	case "mysql":
		// the rest of the location is a go-sql-driver DSN,
		// e.g. mysql:user:pass@tcp(localhost:3306)/chonk
		dial := strings.TrimPrefix(location, "mysql:")
		dial = strings.TrimPrefix(dial, "//")
		s, err := store.NewMySQL(dial)
		if err != nil {
			log.Println("Error opening database,", err)
			return nil
		}
		return s
	case "ql":
		p := u.Opaque
		if p == "" {
			p = u.Path
		}
		return store.NewQL(p)
	}
	log.Println("Unknown location scheme", u.Scheme)
	return nil
}

// Package config loads stagehand service-definition files.
//
// A definition file is YAML and lists the services to start together with
// optional run defaults:
//
//	network: stagehand-network
//	timeout: 300
//	services:
//	  - name: db
//	    image: postgres:16
//	    ports: {5432: 5432}
//	    env: {POSTGRES_PASSWORD: "${PG_PASSWORD}"}
//	    ready: {endpoint: "tcp://localhost:5432"}
//	  - name: api
//	    image: example/api:latest
//	    depends_on: [db]
//	    ready: {endpoint: "http://localhost:8080", path: /healthz}
//	    init: {endpoint: "http://localhost:8080", method: POST, path: /seed}
//
// Environment references in env values and init headers are expanded when
// the file is loaded. Command-line flags override the file's network and
// timeout.
//
// When no path is given the loader looks for stagehand.yaml in the working
// directory and then for .stagehand/stagehand.yaml.
package config

// Package output renders RESP replies for respkv-cli.
//
// Three formats are supported:
//
//   - text: the redis-cli layout, e.g. OK, "value", (nil), (error) ERR ...
//     and numbered arrays
//   - json: replies converted to plain JSON values
//   - yaml: the same conversion encoded as YAML
//
// Error replies become {"error": "..."} objects in json and yaml so that
// scripts can tell them apart from strings.
package output

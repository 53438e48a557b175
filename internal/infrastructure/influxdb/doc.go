// Package influxdb records inventory service metrics in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Writes go through
// the non-blocking, batched WriteAPI so that the HTTP request path never
// waits on InfluxDB.
//
// Measurements:
//
//	api_requests       tags: method, route, status   fields: duration_ms, count
//	entity_mutations   tags: action, driver          fields: count
//	entity_counts      tags: driver                  fields: total
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAPIRequest("POST", "/entity/{driver}", 201, elapsed)
//
// The token is read from config.yaml or INVENTORY_INFLUXDB_TOKEN.
package influxdb

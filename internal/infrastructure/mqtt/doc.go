// Package mqtt publishes inventory change events to an MQTT broker.
//
// The service is a publisher only. Every completed create, delete or insert
// is announced on a per-entity topic so that external systems (CMDB sync,
// monitoring, DNS automation) can follow the inventory without polling:
//
//	{prefix}/entity/created/{driver}/{name}
//	{prefix}/entity/deleted/{driver}/{name}
//	{prefix}/entity/inserted/{driver}/{name}
//	{prefix}/system/status
//
// The status topic is retained and carries the Last Will, so subscribers
// can tell a crashed service from a graceful shutdown.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := client.Topics().EntityEvent("created", "pool", "p1")
//	err = client.PublishJSON(topic, payload, false)
//
// Credentials come from config.yaml or INVENTORY_MQTT_USERNAME and
// INVENTORY_MQTT_PASSWORD. Enable TLS for anything beyond a local broker.
package mqtt

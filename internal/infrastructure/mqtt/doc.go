// Package mqtt provides MQTT client connectivity for homegraph.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS validation
//   - Topic subscriptions, restored after every reconnect
//   - Last Will and Testament (LWT) on {prefix}/system/status
//   - Panic recovery around message handlers
//
// homegraph talks to device bridges over the broker. Characteristic writes
// go out on {prefix}/command/{accessory_id}; bridges answer on
// {prefix}/ack/{accessory_id} and report device state on
// {prefix}/state/{accessory_id}.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//	err = client.Subscribe(topics.AllStates(), 1,
//	    func(topic string, payload []byte) error {
//	        id, _ := topics.AccessoryID(topic)
//	        ...
//	    })
//
// Broker-backed tests live behind the integration build tag:
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...
package mqtt

// Package bridge carries characteristic writes between the in-memory host
// graph and device bridges over MQTT.
//
// A write becomes a CommandMessage on {prefix}/command/{accessory_id}. The
// device side answers with an AckMessage on {prefix}/ack/{accessory_id};
// the write completes when an accepted or failed ack arrives, or with
// ErrAckTimeout when none does. Device-originated changes arrive as
// StateMessages on {prefix}/state/{accessory_id} and are stored in the
// graph's cached values.
//
//	b, err := bridge.New(bridge.Options{Client: client, Sink: graph, Topics: client.Topics()})
//	graph.SetWriter(b)
//	if err := b.Start(ctx); err != nil {
//	    return err
//	}
//	defer b.Stop()
package bridge

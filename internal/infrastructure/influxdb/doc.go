// Package influxdb records NooLite sensor readings in InfluxDB v2.
//
// Every temperature, humidity, battery and switch reading the bridge
// publishes can also be written as a point:
//
//	noolite_reading,channel=7,kind=temperature,mode=RX value=23.1
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteChannelReading("temperature", 7, "RX", 23.1)
//
// Writes are non-blocking and batched per batch_size and flush_interval.
// Asynchronous write failures are delivered to the SetOnError callback.
package influxdb

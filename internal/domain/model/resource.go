package model

import "fmt"

// ResourceKind is the CLIP v2 resource type as reported in the "type" field.
type ResourceKind string

const (
	KindDevice                     ResourceKind = "device"
	KindBridgeHome                 ResourceKind = "bridge_home"
	KindRoom                       ResourceKind = "room"
	KindZone                       ResourceKind = "zone"
	KindLight                      ResourceKind = "light"
	KindButton                     ResourceKind = "button"
	KindRelativeRotary             ResourceKind = "relative_rotary"
	KindTemperature                ResourceKind = "temperature"
	KindLightLevel                 ResourceKind = "light_level"
	KindMotion                     ResourceKind = "motion"
	KindEntertainment              ResourceKind = "entertainment"
	KindGroupedLight               ResourceKind = "grouped_light"
	KindDevicePower                ResourceKind = "device_power"
	KindZigbeeBridgeConnectivity   ResourceKind = "zigbee_bridge_connectivity"
	KindZigbeeConnectivity         ResourceKind = "zigbee_connectivity"
	KindZgpConnectivity            ResourceKind = "zgp_connectivity"
	KindBridge                     ResourceKind = "bridge"
	KindZigbeeDeviceDiscovery      ResourceKind = "zigbee_device_discovery"
	KindHomekit                    ResourceKind = "homekit"
	KindMatter                     ResourceKind = "matter"
	KindScene                      ResourceKind = "scene"
	KindSmartScene                 ResourceKind = "smart_scene"
	KindEntertainmentConfiguration ResourceKind = "entertainment_configuration"
	KindPublicImage                ResourceKind = "public_image"
	KindAuthV1                     ResourceKind = "auth_v1"
	KindBehaviorScript             ResourceKind = "behavior_script"
	KindBehaviorInstance           ResourceKind = "behavior_instance"
	KindGeofence                   ResourceKind = "geofence"
	KindGeofenceClient             ResourceKind = "geofence_client"
	KindGeolocation                ResourceKind = "geolocation"
)

var knownKinds = map[ResourceKind]struct{}{
	KindDevice: {}, KindBridgeHome: {}, KindRoom: {}, KindZone: {}, KindLight: {},
	KindButton: {}, KindRelativeRotary: {}, KindTemperature: {}, KindLightLevel: {},
	KindMotion: {}, KindEntertainment: {}, KindGroupedLight: {}, KindDevicePower: {},
	KindZigbeeBridgeConnectivity: {}, KindZigbeeConnectivity: {}, KindZgpConnectivity: {},
	KindBridge: {}, KindZigbeeDeviceDiscovery: {}, KindHomekit: {}, KindMatter: {},
	KindScene: {}, KindSmartScene: {}, KindEntertainmentConfiguration: {}, KindPublicImage: {},
	KindAuthV1: {}, KindBehaviorScript: {}, KindBehaviorInstance: {}, KindGeofence: {},
	KindGeofenceClient: {}, KindGeolocation: {},
}

// SensorKinds groups the sensor-like resource kinds.
var SensorKinds = []ResourceKind{
	KindDevicePower, KindButton, KindGeofenceClient, KindLightLevel,
	KindMotion, KindRelativeRotary, KindTemperature, KindZigbeeConnectivity,
}

// Known reports whether the kind is one this client has a name for.
// Unknown kinds are still stored and streamed.
func (k ResourceKind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// ResourceIdentity is assigned by the bridge and never changes.
type ResourceIdentity struct {
	Kind ResourceKind `json:"rtype"`
	ID   string       `json:"rid"`
}

func (i ResourceIdentity) String() string {
	return fmt.Sprintf("%s/%s", i.Kind, i.ID)
}

func (i ResourceIdentity) IsZero() bool {
	return i.Kind == "" && i.ID == ""
}

// ResourceRecord is a resource identity plus its kind-specific attribute bag.
type ResourceRecord struct {
	Identity   ResourceIdentity
	Attributes Attributes
}

func NewRecord(kind ResourceKind, id string, attrs Attributes) ResourceRecord {
	return ResourceRecord{Identity: ResourceIdentity{Kind: kind, ID: id}, Attributes: attrs}
}

// Clone returns a deep copy that shares nothing with r.
func (r ResourceRecord) Clone() ResourceRecord {
	return ResourceRecord{Identity: r.Identity, Attributes: r.Attributes.Clone()}
}

func (r ResourceRecord) Kind() ResourceKind { return r.Identity.Kind }

func (r ResourceRecord) ID() string { return r.Identity.ID }

// Ref reads a {"rid","rtype"} reference stored under key.
func (r ResourceRecord) Ref(key string) (ResourceIdentity, bool) {
	v, ok := r.Attributes.Get(key)
	if !ok {
		return ResourceIdentity{}, false
	}
	return refFrom(v)
}

// Refs reads a list of {"rid","rtype"} references stored under key.
func (r ResourceRecord) Refs(key string) []ResourceIdentity {
	v, ok := r.Attributes.Get(key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	refs := make([]ResourceIdentity, 0, len(items))
	for _, item := range items {
		if ref, ok := refFrom(item); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func refFrom(v any) (ResourceIdentity, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return ResourceIdentity{}, false
	}
	rid, _ := m["rid"].(string)
	rtype, _ := m["rtype"].(string)
	if rid == "" || rtype == "" {
		return ResourceIdentity{}, false
	}
	return ResourceIdentity{Kind: ResourceKind(rtype), ID: rid}, true
}

// Package pbbridge connects the dynamic message engine to google.golang.org/protobuf.
//
// A Loader turns protoreflect descriptors into linked mini tables and
// extensions, caching them by full name so recursive and shared types are
// built once. FromProto and ToProto copy field values between a proto.Message
// (generated or dynamicpb) and an engine message of the matching table.
//
// # Type Mapping
//
//   - sint32, sfixed32 -> TypeInt32; sint64, sfixed64 -> TypeInt64
//   - fixed32 -> TypeUInt32; fixed64 -> TypeUInt64
//   - group -> TypeMessage
//   - fields without presence in proto3 -> implicit presence
//   - synthetic oneofs of proto3 optional fields -> plain explicit presence
//
// # Basic Usage
//
//	l := pbbridge.NewLoader()
//	mt, err := l.Load((&pb.Order{}).ProtoReflect().Descriptor())
//	...
//	m, err := l.FromProto(order, a)
//	...
//	out := &pb.Order{}
//	err = l.ToProto(m, out)
//
// A Loader is not safe for concurrent use; the tables it returns are.
package pbbridge

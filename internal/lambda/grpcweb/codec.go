// Package grpcweb implements the subset of the gRPC-Web wire format needed
// to serve unary calls from an HTTP-only runtime such as Lambda.
package grpcweb

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

const (
	// ContentTypeProto is the content type for binary protobuf gRPC-Web
	ContentTypeProto = "application/grpc-web+proto"
	// ContentTypeText is the content type for text (base64) protobuf gRPC-Web
	ContentTypeText = "application/grpc-web-text"

	frameHeaderLen = 5
	flagData       = 0x00
	flagTrailer    = 0x80
)

// IsGRPCWeb reports whether contentType names either gRPC-Web encoding.
func IsGRPCWeb(contentType string) bool {
	return strings.Contains(contentType, ContentTypeProto) || IsText(contentType)
}

// IsText reports whether contentType is the base64 text encoding.
func IsText(contentType string) bool {
	return strings.Contains(contentType, ContentTypeText)
}

// DecodeRequest returns the raw framed bytes of a request body, undoing the
// base64 layer of the text encoding.
func DecodeRequest(contentType string, body []byte) ([]byte, error) {
	switch {
	case IsText(contentType):
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
		n, err := base64.StdEncoding.Decode(decoded, body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 gRPC-Web request: %w", err)
		}
		return decoded[:n], nil
	case strings.Contains(contentType, ContentTypeProto):
		return body, nil
	}
	return nil, fmt.Errorf("unsupported content type: %s", contentType)
}

// ReadFrame reads one length-prefixed frame and returns its payload and the
// bytes that follow it. Compressed frames are rejected.
func ReadFrame(data []byte) (payload []byte, rest []byte, err error) {
	if len(data) < frameHeaderLen {
		return nil, data, io.ErrUnexpectedEOF
	}

	flags := data[0]
	length := int(binary.BigEndian.Uint32(data[1:frameHeaderLen]))

	if flags&0x01 != 0 {
		return nil, nil, fmt.Errorf("compression not supported, flags: %d", flags)
	}
	if len(data) < frameHeaderLen+length {
		return nil, data, io.ErrUnexpectedEOF
	}

	return data[frameHeaderLen : frameHeaderLen+length], data[frameHeaderLen+length:], nil
}

// UnmarshalRequest decodes the body and its first frame into msg.
func UnmarshalRequest(contentType string, body []byte, msg proto.Message) error {
	framed, err := DecodeRequest(contentType, body)
	if err != nil {
		return err
	}
	payload, _, err := ReadFrame(framed)
	if err != nil {
		return fmt.Errorf("invalid gRPC-Web frame: %w", err)
	}
	if err := proto.Unmarshal(payload, msg); err != nil {
		return fmt.Errorf("invalid protobuf message: %w", err)
	}
	return nil
}

// EncodeResponse frames message followed by an OK trailer frame and returns
// the body plus its content type.
func EncodeResponse(message proto.Message, useText bool) ([]byte, string, error) {
	data, err := proto.Marshal(message)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal protobuf: %w", err)
	}

	var buf bytes.Buffer
	writeFrame(&buf, flagData, data)
	writeFrame(&buf, flagTrailer, trailer(status.New(codes.OK, "")))
	return finish(buf.Bytes(), useText)
}

// EncodeError returns a trailer-only body for err along with its content
// type and the HTTP status used for the response.
func EncodeError(err error, useText bool) ([]byte, string, int) {
	st, ok := status.FromError(err)
	if !ok {
		st = status.New(codes.Internal, err.Error())
	}

	var buf bytes.Buffer
	writeFrame(&buf, flagTrailer, trailer(st))
	body, contentType, _ := finish(buf.Bytes(), useText)
	return body, contentType, HTTPStatus(st.Code())
}

// HTTPStatus maps a gRPC code onto the HTTP status returned alongside an
// error trailer.
func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ParseMethodPath splits "/package.Service/Method" into its service and
// method parts.
func ParseMethodPath(path string) (service, method string, err error) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid gRPC-Web path format: %s", path)
	}
	return parts[0], parts[1], nil
}

func writeFrame(buf *bytes.Buffer, flags byte, payload []byte) {
	var header [frameHeaderLen]byte
	header[0] = flags
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	buf.Write(header[:])
	buf.Write(payload)
}

func trailer(st *status.Status) []byte {
	return []byte(fmt.Sprintf("grpc-status: %d\r\ngrpc-message: %s\r\n",
		int(st.Code()), url.PathEscape(st.Message())))
}

func finish(frames []byte, useText bool) ([]byte, string, error) {
	if useText {
		encoded := make([]byte, base64.StdEncoding.EncodedLen(len(frames)))
		base64.StdEncoding.Encode(encoded, frames)
		return encoded, ContentTypeText, nil
	}
	return frames, ContentTypeProto, nil
}

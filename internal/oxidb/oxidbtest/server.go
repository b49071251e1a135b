// Package oxidbtest runs an in-memory oxidb-server speaking the wire
// protocol, for tests.
package oxidbtest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
)

type object struct {
	data        string
	contentType string
	metadata    map[string]any
}

// Server answers the subset of commands the client speaks.
type Server struct {
	ln net.Listener

	mu          sync.Mutex
	nextID      float64
	collections map[string][]map[string]any
	indexes     map[string][]string
	buckets     map[string]map[string]object
	failures    map[string]string
	commands    []string
	conns       map[net.Conn]bool

	wg sync.WaitGroup
}

// NewServer listens on a loopback port and serves until Close.
func NewServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ln:          ln,
		collections: map[string][]map[string]any{},
		indexes:     map[string][]string{},
		buckets:     map[string]map[string]object{},
		failures:    map[string]string{},
		conns:       map[net.Conn]bool{},
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

// Close stops accepting and drops open connections.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

// Fail makes every following cmd reply with msg until cleared with "".
func (s *Server) Fail(cmd, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == "" {
		delete(s.failures, cmd)
		return
	}
	s.failures[cmd] = msg
}

// Commands returns the commands received so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Docs returns a copy of a collection.
func (s *Server) Docs(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.collections[collection]...)
}

// Indexes returns the indexed fields of a collection.
func (s *Server) Indexes(collection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.indexes[collection]...)
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = true
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		body := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		var req map[string]any
		var resp map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			resp = failure("invalid json")
		} else {
			resp = s.dispatch(req)
		}
		out, _ := json.Marshal(resp)
		frame := make([]byte, 4+len(out))
		binary.LittleEndian.PutUint32(frame, uint32(len(out)))
		copy(frame[4:], out)
		if _, err := conn.Write(frame); err != nil {
			return
		}
	}
}

func success(data any) map[string]any { return map[string]any{"ok": true, "data": data} }

func failure(msg string) map[string]any { return map[string]any{"ok": false, "error": msg} }

func (s *Server) dispatch(req map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, _ := req["cmd"].(string)
	s.commands = append(s.commands, cmd)
	if msg, ok := s.failures[cmd]; ok {
		return failure(msg)
	}
	collection, _ := req["collection"].(string)
	query, _ := req["query"].(map[string]any)

	switch cmd {
	case "ping":
		return success("pong")
	case "insert":
		doc, _ := req["doc"].(map[string]any)
		if doc == nil {
			return failure("missing doc")
		}
		s.nextID++
		doc["_id"] = s.nextID
		s.collections[collection] = append(s.collections[collection], doc)
		return success(map[string]any{"id": s.nextID})
	case "find":
		docs := s.match(collection, query)
		if spec, ok := req["sort"].(map[string]any); ok {
			sortDocs(docs, spec)
		}
		if skip, ok := req["skip"].(float64); ok {
			if int(skip) >= len(docs) {
				docs = nil
			} else {
				docs = docs[int(skip):]
			}
		}
		if limit, ok := req["limit"].(float64); ok && int(limit) < len(docs) {
			docs = docs[:int(limit)]
		}
		out := make([]any, len(docs))
		for i, d := range docs {
			out[i] = d
		}
		return success(out)
	case "find_one":
		docs := s.match(collection, query)
		if len(docs) == 0 {
			return success(nil)
		}
		return success(docs[0])
	case "create_index", "create_unique_index":
		field, _ := req["field"].(string)
		s.indexes[collection] = append(s.indexes[collection], field)
		return success("ok")
	case "create_bucket":
		bucket, _ := req["bucket"].(string)
		if _, ok := s.buckets[bucket]; ok {
			return failure(fmt.Sprintf("bucket %q already exists", bucket))
		}
		s.buckets[bucket] = map[string]object{}
		return success("ok")
	case "put_object":
		bucket, _ := req["bucket"].(string)
		objs, ok := s.buckets[bucket]
		if !ok {
			return failure(fmt.Sprintf("bucket %q not found", bucket))
		}
		key, _ := req["key"].(string)
		data, _ := req["data"].(string)
		ct, _ := req["content_type"].(string)
		meta, _ := req["metadata"].(map[string]any)
		objs[key] = object{data: data, contentType: ct, metadata: meta}
		return success(map[string]any{"bucket": bucket, "key": key})
	case "get_object":
		bucket, _ := req["bucket"].(string)
		key, _ := req["key"].(string)
		obj, ok := s.buckets[bucket][key]
		if !ok {
			return failure(fmt.Sprintf("object %q not found", key))
		}
		return success(map[string]any{"content": obj.data, "content_type": obj.contentType, "metadata": obj.metadata})
	}
	return failure(fmt.Sprintf("unknown command %q", cmd))
}

func (s *Server) match(collection string, query map[string]any) []map[string]any {
	var out []map[string]any
	for _, doc := range s.collections[collection] {
		ok := true
		for k, v := range query {
			if fmt.Sprint(doc[k]) != fmt.Sprint(v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out
}

// sortDocs orders by the single key of spec; 1 ascending, -1 descending.
func sortDocs(docs []map[string]any, spec map[string]any) {
	for field, dir := range spec {
		desc := dir == float64(-1)
		sort.SliceStable(docs, func(i, j int) bool {
			less := lessValue(docs[i][field], docs[j][field])
			if desc {
				return lessValue(docs[j][field], docs[i][field])
			}
			return less
		})
		return
	}
}

func lessValue(a, b any) bool {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

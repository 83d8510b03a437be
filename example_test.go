package prototab

import (
	"fmt"
	"log"

	"google.golang.org/protobuf/encoding/protowire"
)

// Example decodes a wire buffer against a schema loaded from a .proto file,
// first into a generic map and then into a Go struct.
func Example() {
	proto := New()
	if err := proto.LoadSchema("testdata/user.proto"); err != nil {
		log.Fatal(err)
	}

	// name = "alice", id = 42, role = ROLE_MEMBER
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendString(buf, "alice")
	buf = protowire.AppendTag(buf, 2, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 42)
	buf = protowire.AppendTag(buf, 5, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 2)

	result, err := proto.Parse(buf, "User")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result["name"], result["id"], result["role"])

	type User struct {
		Name string
		Id   int32
		Role string
	}
	var user User
	if err := proto.Unmarshal(buf, &user); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%+v\n", user)

	// Output:
	// alice 42 ROLE_MEMBER
	// {Name:alice Id:42 Role:ROLE_MEMBER}
}

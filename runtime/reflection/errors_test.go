package reflection

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindUnknownClass, Subject: "Nope"})

	assert.ErrorIs(t, err, ErrUnknownClass)
	assert.NotErrorIs(t, err, ErrUnknownCallable)
	assert.Equal(t, KindUnknownClass, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("decode failed")
	err := &Error{Kind: KindMalformedRecord, Err: cause}
	assert.ErrorIs(t, err, cause)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindParameterNotFound, Subject: "x"}, "no parameter named x found"},
		{&Error{Kind: KindDefaultUnresolvable, Reason: "undefined constant FOO"}, "undefined constant FOO"},
		{malformedArgument("Property::getValue()", "exactly 1 parameter", "0"), "Property::getValue() expects exactly 1 parameter, 0 given"},
		{malformedRecord("property $p", "missing access"), "malformed metadata record for property $p: missing access"},
		{notCloneable("Parameter"), "trying to clone an uncloneable object of class Parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(&Error{Kind: KindNullParameters})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"null_parameters"}`, string(data))

	var decoded Error
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"unknown_extension","subject":"x"}`), &decoded))
	assert.Equal(t, KindUnknownExtension, decoded.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"bogus"}`), &decoded))

	// only a JSON string names a kind
	for _, raw := range []string{`"null_parameters`, `null_parameters`, `null_parameters"`, `7`} {
		var k Kind
		assert.Error(t, k.UnmarshalJSON([]byte(raw)), raw)
		assert.Equal(t, Kind(0), k, raw)
	}
}

func TestParseCallable(t *testing.T) {
	id := uuid.New()
	obj := NewObject("Widget", nil)

	tests := []struct {
		name string
		in   interface{}
		want CallableRef
	}{
		{"function name", "strlen", FunctionRef{Name: "strlen"}},
		{"method string", "A::m", MethodRef{Class: "A", Method: "m"}},
		{"string pair", []string{"A", "m"}, MethodRef{Class: "A", Method: "m"}},
		{"array pair", [2]string{"A", "m"}, MethodRef{Class: "A", Method: "m"}},
		{"instance pair", []interface{}{obj, "m"}, MethodRef{Class: "Widget", Method: "m"}},
		{"closure", Closure{ID: id}, Closure{ID: id}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCallable(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []struct {
		in   interface{}
		kind string
	}{
		{42, "integer"},
		{nil, "null"},
		{[]string{"A"}, "array"},
		{[]interface{}{1, "m"}, "array"},
		{3.5, "double"},
	}
	for _, tt := range invalid {
		t.Run("invalid "+tt.kind, func(t *testing.T) {
			_, err := ParseCallable(tt.in)
			require.ErrorIs(t, err, ErrInvalidCallableKind)
			assert.Contains(t, err.Error(), tt.kind)
		})
	}
}

func TestDefaultValueStates(t *testing.T) {
	v, err := DefaultOf(nil).Value("$a")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = NoDefault().Value("$a")
	assert.ErrorIs(t, err, ErrDefaultNotOptional)

	_, err = UnresolvableDefault("boom").Value("$a")
	require.ErrorIs(t, err, ErrDefaultUnresolvable)
	assert.Equal(t, "boom", err.Error())

	assert.Equal(t, "unavailable", NoDefault().State().String())
}

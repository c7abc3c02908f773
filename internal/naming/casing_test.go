package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformCamelCase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"my-url-name", "myUrlName"},
		{"My Url Name", "myUrlName"},
		{"USER-info", "userInfo"},
		// hyphen wins over space when both are present
		{"pet store-api", "pet storeApi"},
		{"noDelimiter", ""},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TransformCamelCase(tc.in), "input %q", tc.in)
	}
}

func TestToDashCase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "my-url-name", ToDashCase("myUrlName"))
	assert.Equal(t, "user-info", ToDashCase("UserInfo"))
	assert.Equal(t, "pet-store", ToDashCase("Pet Store"))
	assert.Equal(t, "plain", ToDashCase("plain"))
}

func TestToDashDefaultCase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "user", ToDashDefaultCase("UserController"))
	assert.Equal(t, "pet-store", ToDashDefaultCase("pet Store Controller"))
	assert.Equal(t, "controller-user", ToDashDefaultCase("ControllerUser"))
}

func TestToUpperFirstLetter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "MyURL", ToUpperFirstLetter("myURL"))
	assert.Equal(t, "", ToUpperFirstLetter(""))
	assert.Equal(t, "Éa", ToUpperFirstLetter("éa"))
}

func TestTransformDescription(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "petStore", TransformDescription("Pet Store Controller"))
	assert.Equal(t, "user", TransformDescription("User Controller"))
	assert.Equal(t, "", TransformDescription("Controller"))
	assert.Equal(t, "orderAPI", TransformDescription("Order API"))
}

func TestHasCJK(t *testing.T) {
	t.Parallel()
	assert.True(t, HasCJK("用户管理"))
	assert.True(t, HasCJK("user，list"))
	assert.False(t, HasCJK("User Controller"))
	assert.False(t, HasCJK(""))
}

func TestTypeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ResultListUser", TypeName("Result«List«User»»"))
	assert.Equal(t, "UserInfo", TypeName("user_info"))
	assert.Equal(t, "T2fa", TypeName("2fa"))
	assert.Equal(t, "", TypeName("«»"))
}

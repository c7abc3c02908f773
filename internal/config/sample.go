package config

// SampleJSON is the starter configuration written by "oas2client init".
// Replace "origins" with a single "originUrl" when only one API is used.
const SampleJSON = `{
  "origins": [
    {
      "name": "petstore",
      "originUrl": "https://petstore.swagger.io/v2/swagger.json",
      "usingOperationId": true
    }
  ],
  "usingOperationId": false,
  "taggedByName": true,
  "outDir": "service",
  "templatePath": "serviceTemplate",
  "template": "go",
  "formatterOptions": {
    "extraRules": false
  }
}
`

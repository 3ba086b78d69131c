package config

// Schema is the JSON schema for validating feature-repo files
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "additionalProperties": false,
    "required": ["object_store", "sources"],
    "properties": {
        "project": {
            "type": "string",
            "pattern": "^[a-zA-Z0-9_-]*$"
        },
        "logging": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
                "level": {
                    "type": "string",
                    "enum": ["debug", "info", "warn", "error"]
                },
                "format": {
                    "type": "string",
                    "enum": ["json", "console"]
                }
            }
        },
        "object_store": {
            "type": "object",
            "additionalProperties": false,
            "required": ["endpoint"],
            "properties": {
                "provider": {
                    "type": "string",
                    "enum": ["minio", "s3"]
                },
                "endpoint": {
                    "type": "string"
                },
                "use_tls": {
                    "type": "boolean"
                },
                "region": {
                    "type": "string"
                },
                "path_style": {
                    "type": "boolean"
                },
                "access_key_env": {
                    "type": "string",
                    "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"
                },
                "secret_key_env": {
                    "type": "string",
                    "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"
                }
            }
        },
        "sources": {
            "type": "array",
            "minItems": 1,
            "items": {
                "type": "object",
                "additionalProperties": false,
                "required": ["name"],
                "properties": {
                    "name": {
                        "type": "string"
                    },
                    "path": {
                        "type": "string"
                    },
                    "bucket": {
                        "type": "string"
                    },
                    "key": {
                        "type": "string"
                    },
                    "endpoint_override": {
                        "type": "string"
                    },
                    "timestamp_field": {
                        "type": "string"
                    },
                    "created_timestamp_column": {
                        "type": "string"
                    },
                    "description": {
                        "type": "string"
                    },
                    "owner": {
                        "type": "string"
                    },
                    "file_format": {
                        "type": "string",
                        "enum": ["parquet", "delta"]
                    },
                    "field_mapping": {
                        "type": "object",
                        "additionalProperties": {"type": "string"}
                    },
                    "tags": {
                        "type": "object",
                        "additionalProperties": {"type": "string"}
                    }
                }
            }
        }
    }
}`
